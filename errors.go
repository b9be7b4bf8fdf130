package gridview

import "errors"

// Package errors.
var (
	// ErrInvalidGridSize is returned when a grid dimension is not positive.
	ErrInvalidGridSize = errors.New("gridview: invalid grid size")

	// ErrInvalidCanvasSize is returned when the canvas is empty or smaller
	// than its header band.
	ErrInvalidCanvasSize = errors.New("gridview: invalid canvas size")

	// ErrDataLength is returned when a data array does not hold exactly
	// columns*rows values.
	ErrDataLength = errors.New("gridview: data length does not match grid size")

	// ErrViewportIndex is returned when a viewport index is outside the group.
	ErrViewportIndex = errors.New("gridview: viewport index out of range")

	// ErrNotReady is returned when rendering is requested before a render
	// backend is attached. Hosts must gate interaction on device readiness.
	ErrNotReady = errors.New("gridview: render backend not attached")

	// ErrInvalidViewport is returned for an inverted or non-finite viewport.
	ErrInvalidViewport = errors.New("gridview: invalid viewport")

	// ErrNoDataSource is returned by Step when no data source is attached.
	ErrNoDataSource = errors.New("gridview: no data source")

	// ErrClosed is returned by operations on a closed grid.
	ErrClosed = errors.New("gridview: grid is closed")

	// ErrGridSizeMismatch is returned when joining a group whose shared
	// state has a different grid size.
	ErrGridSizeMismatch = errors.New("gridview: grid size does not match group")
)
