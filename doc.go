// Package gridview is a viewport engine for very large cell grids drawn
// with instanced GPU rendering.
//
// # Overview
//
// A grid of up to millions of cells is shown through a floating viewport
// rectangle measured in cell units. Only the cells inside the viewport are
// drawn, one instance per visible cell, header and scrollbar. The engine
// keeps the viewport, its elastic overscroll and inertia, the selection and
// focus state, and the packed render state in step at 60 Hz, and maps
// pointer positions back to cells with the exact inverse of the transform
// the shader applies.
//
// # Quick Start
//
//	backend, err := gpu.New(device, queue)
//	if err != nil {
//		return err
//	}
//	g, err := gridview.NewGrid(gridview.GridSize{Columns: 4096, Rows: 4096},
//		gridview.WithCanvasSize(1024, 768),
//		gridview.WithHeaderOffset(48, 24),
//		gridview.WithBackend(backend),
//	)
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	_ = g.SetData(values)
//	_ = g.PointerDown(gridview.PointerEvent{Client: gridview.V2(300, 200)})
//
// # Coordinate Spaces
//
// Cell → world → viewport-normalized → frame → canvas → clip. Frame.Forward
// runs the chain the shader runs; Frame.Inverse and Classify run it
// backwards for picking. Headers occupy a fixed pixel band on the left and
// top edges independent of zoom.
//
// # Multiple Viewports
//
// Grids created with the same Group share values, selection, focus and the
// viewport rectangle array. A change made through one viewport is written to
// the shared arrays and then replayed on every member; change callbacks fire
// only on the viewport the change came from.
//
// # Concurrency
//
// All state changes of a group are serialised by one lock. Callbacks run
// after the lock is released and may call back into the grid.
package gridview
