package gridview

import (
	"time"

	"github.com/gogpu/gridview/gpucore"
)

// GridOption configures a Grid during creation.
//
// Example:
//
//	g, err := gridview.NewGrid(gridview.GridSize{Columns: 1024, Rows: 1024},
//		gridview.WithCanvasSize(800, 600),
//		gridview.WithHeaderOffset(48, 24),
//		gridview.WithBackend(backend),
//	)
type GridOption func(*gridOptions)

// FocusedStateFunc is called with the focused cell after a local change.
type FocusedStateFunc func(focus CellRef)

// SelectedStateFunc is called with the clicked target and modifiers after a
// local selection change.
type SelectedStateFunc func(target CellRef, mods Modifiers)

// ViewportStateFunc is called with the viewport index and rectangle after a
// local viewport change.
type ViewportStateFunc func(index int, r Rect)

type gridOptions struct {
	canvas          Vec2
	header          Vec2
	scrollBar       ScrollBarGeometry
	cellMargin      float64
	sampleCount     uint32
	viewport        *Rect
	overscroll      Vec2
	allowOverscroll bool
	zoomStep        float64
	minCells        float64
	detailThreshold float64

	overscrollFriction float64
	overscrollEpsilon  float64
	velocityFriction   float64
	velocityEpsilon    float64
	tickInterval       time.Duration
	scheduler          Scheduler

	backend gpucore.RenderBackend
	group   *Group
	source  DataSource

	onFocus    FocusedStateFunc
	onSelect   SelectedStateFunc
	onViewport ViewportStateFunc
}

func defaultGridOptions() gridOptions {
	return gridOptions{
		canvas:             V2(800, 600),
		scrollBar:          ScrollBarGeometry{Radius: 6, Margin: 2},
		cellMargin:         0.05,
		sampleCount:        4,
		allowOverscroll:    true,
		zoomStep:           1.025,
		minCells:           1,
		detailThreshold:    gpucore.DefaultDetailThreshold,
		overscrollFriction: DefaultOverscrollFriction,
		overscrollEpsilon:  DefaultOverscrollEpsilon,
		velocityFriction:   DefaultVelocityFriction,
		velocityEpsilon:    DefaultVelocityEpsilon,
		tickInterval:       DefaultTickInterval,
		scheduler:          SystemScheduler,
	}
}

// WithCanvasSize sets the drawing surface size in pixels.
func WithCanvasSize(width, height int) GridOption {
	return func(o *gridOptions) {
		o.canvas = V2(float64(width), float64(height))
	}
}

// WithHeaderOffset sets the row header width and column header height in
// pixels. Headers keep this size at every zoom level.
func WithHeaderOffset(rowHeaderWidth, columnHeaderHeight float64) GridOption {
	return func(o *gridOptions) {
		o.header = V2(rowHeaderWidth, columnHeaderHeight)
	}
}

// WithScrollBar sets the scrollbar radius and edge margin in pixels.
// A zero radius disables scrollbars.
func WithScrollBar(radius, margin float64) GridOption {
	return func(o *gridOptions) {
		o.scrollBar = ScrollBarGeometry{Radius: radius, Margin: margin}
	}
}

// WithCellMargin sets the gap drawn around each cell, as a fraction of the
// cell, when cells are large enough to show it.
func WithCellMargin(m float64) GridOption {
	return func(o *gridOptions) {
		o.cellMargin = m
	}
}

// WithSampleCount sets the multisample count (1 or 4).
func WithSampleCount(n uint32) GridOption {
	return func(o *gridOptions) {
		o.sampleCount = n
	}
}

// WithViewport sets the initial viewport. The default shows the whole grid.
func WithViewport(r Rect) GridOption {
	return func(o *gridOptions) {
		o.viewport = &r
	}
}

// WithOverscroll sets the initial overscroll in pixels.
func WithOverscroll(v Vec2) GridOption {
	return func(o *gridOptions) {
		o.overscroll = v
	}
}

// WithOverscrollEnabled turns the elastic edge on or off.
func WithOverscrollEnabled(on bool) GridOption {
	return func(o *gridOptions) {
		o.allowOverscroll = on
	}
}

// WithZoomStep sets the scale applied per wheel notch (> 1).
func WithZoomStep(s float64) GridOption {
	return func(o *gridOptions) {
		if s > 1 {
			o.zoomStep = s
		}
	}
}

// WithMinVisibleCells limits zooming in to n cells on the shorter axis.
func WithMinVisibleCells(n float64) GridOption {
	return func(o *gridOptions) {
		o.minCells = n
	}
}

// WithDetailThreshold sets the pixels-per-cell below which cells are drawn
// without margins.
func WithDetailThreshold(px float64) GridOption {
	return func(o *gridOptions) {
		o.detailThreshold = px
	}
}

// WithOverscrollFriction sets the per-tick overscroll decay and snap epsilon.
func WithOverscrollFriction(friction, epsilon float64) GridOption {
	return func(o *gridOptions) {
		o.overscrollFriction = friction
		o.overscrollEpsilon = epsilon
	}
}

// WithVelocityFriction sets the per-tick velocity decay and snap epsilon.
func WithVelocityFriction(friction, epsilon float64) GridOption {
	return func(o *gridOptions) {
		o.velocityFriction = friction
		o.velocityEpsilon = epsilon
	}
}

// WithTickInterval sets the inertia tick interval.
func WithTickInterval(d time.Duration) GridOption {
	return func(o *gridOptions) {
		o.tickInterval = d
	}
}

// WithScheduler replaces the timer source of the inertia ticker.
func WithScheduler(s Scheduler) GridOption {
	return func(o *gridOptions) {
		o.scheduler = s
	}
}

// WithBackend attaches the render backend. The grid owns it from then on
// and destroys it on Close. Without a backend, interaction returns
// ErrNotReady until SetBackend is called.
func WithBackend(b gpucore.RenderBackend) GridOption {
	return func(o *gridOptions) {
		o.backend = b
	}
}

// WithGroup joins an existing multi-viewport group instead of creating a
// private one.
func WithGroup(g *Group) GridOption {
	return func(o *gridOptions) {
		o.group = g
	}
}

// WithDataSource attaches a data source advanced by Grid.Step.
func WithDataSource(s DataSource) GridOption {
	return func(o *gridOptions) {
		o.source = s
	}
}

// OnFocusedStateChange registers the focus callback.
func OnFocusedStateChange(fn FocusedStateFunc) GridOption {
	return func(o *gridOptions) {
		o.onFocus = fn
	}
}

// OnSelectedStateChange registers the selection callback.
func OnSelectedStateChange(fn SelectedStateFunc) GridOption {
	return func(o *gridOptions) {
		o.onSelect = fn
	}
}

// OnViewportStateChange registers the viewport callback.
func OnViewportStateChange(fn ViewportStateFunc) GridOption {
	return func(o *gridOptions) {
		o.onViewport = fn
	}
}
