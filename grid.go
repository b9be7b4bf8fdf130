package gridview

import (
	"errors"
	"fmt"

	"github.com/gogpu/gridview/gpucore"
)

// Grid is one viewport onto a cell grid. It owns the viewport model, the
// current gesture and the inertia ticker, and drives a render backend.
// Values, selection and focus live in the Group it belongs to.
//
// Grid is safe for concurrent use; all state changes are serialised by the
// group lock so the ticker and pointer input never interleave.
type Grid struct {
	group *Group
	index int
	opts  gridOptions

	canvas Vec2
	header Vec2

	model     Model
	gesture   Gesture
	scrollBar ScrollBarState
	detail    gpucore.GeometryDetail

	backend gpucore.RenderBackend
	source  DataSource
	ticker  *ticker
	closed  bool
}

// NewGrid creates a viewport onto a grid of the given size. Without
// WithGroup the grid gets a private single-viewport group.
func NewGrid(size GridSize, opts ...GridOption) (*Grid, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	o := defaultGridOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateCanvas(o.canvas, o.header); err != nil {
		return nil, err
	}

	group := o.group
	if group == nil {
		var err error
		if group, err = NewGroup(size, 1); err != nil {
			return nil, err
		}
	}

	g := &Grid{
		group:   group,
		opts:    o,
		canvas:  o.canvas,
		header:  o.header,
		backend: o.backend,
		source:  o.source,
	}
	g.ticker = newTicker(o.scheduler, o.tickInterval, g.tick)

	err := group.run(func() error {
		if group.size != size {
			return fmt.Errorf("%w: %dx%d, group is %dx%d", ErrGridSizeMismatch,
				size.Columns, size.Rows, group.size.Columns, group.size.Rows)
		}
		var initial []float32
		if g.source != nil {
			initial = g.source.Buffer()
			if len(initial) != size.Cells() {
				return fmt.Errorf("%w: source holds %d values, want %d",
					ErrDataLength, len(initial), size.Cells())
			}
		}
		g.resetGridLocked(size)
		if err := g.applyInitialViewport(); err != nil {
			return err
		}

		index, err := group.joinLocked(g)
		if err != nil {
			return err
		}
		g.index = index
		group.viewports[index] = g.model.Rect.Float32s()

		if initial != nil {
			copy(group.data, initial)
		}
		if g.backend != nil {
			if err := g.configureLocked(); err != nil {
				group.leaveLocked(index)
				return err
			}
		}
		for i, m := range group.members {
			if m != nil && i != index {
				if err := m.refreshViewportLocked(index); err != nil && !errors.Is(err, ErrNotReady) {
					Logger().Warn("gridview: sibling refresh failed", "index", i, "err", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	Logger().Debug("gridview: grid created",
		"index", g.index, "columns", size.Columns, "rows", size.Rows,
		"canvas", fmt.Sprintf("%gx%g", g.canvas.X, g.canvas.Y))
	return g, nil
}

func validateCanvas(canvas, header Vec2) error {
	if canvas.X <= 0 || canvas.Y <= 0 || header.X < 0 || header.Y < 0 ||
		header.X >= canvas.X || header.Y >= canvas.Y {
		return fmt.Errorf("%w: canvas %gx%g, header %gx%g",
			ErrInvalidCanvasSize, canvas.X, canvas.Y, header.X, header.Y)
	}
	return nil
}

func (g *Grid) applyInitialViewport() error {
	if g.opts.viewport == nil && g.opts.overscroll.IsZero() {
		return nil
	}
	r := g.model.Rect
	if g.opts.viewport != nil {
		r = *g.opts.viewport
		if !r.Valid() || r.Width() <= 0 || r.Height() <= 0 {
			return fmt.Errorf("%w: %+v", ErrInvalidViewport, r)
		}
	}
	f := Frame{Viewport: r, Canvas: g.canvas, Header: g.header}
	out := Regulate(g.model.Grid, r, f.CellSize(), g.opts.overscroll, RegulateOptions{Friction: 1})
	g.model.Rect = out.Rect
	g.model.Overscroll = out.Overscroll
	return nil
}

// resetGridLocked puts the model back to the whole grid.
func (g *Grid) resetGridLocked(size GridSize) {
	g.model = Model{
		Grid:     size,
		Rect:     FullRect(size),
		Friction: g.opts.overscrollFriction,
		Epsilon:  g.opts.overscrollEpsilon,
	}
	g.gesture = Gesture{}
}

func (g *Grid) frameLocked() Frame {
	return Frame{
		Viewport:   g.model.Rect,
		Canvas:     g.canvas,
		Header:     g.header,
		Overscroll: g.model.Overscroll,
	}
}

func (g *Grid) readyLocked() error {
	if g.closed {
		return ErrClosed
	}
	if g.backend == nil {
		return ErrNotReady
	}
	return nil
}

func (g *Grid) checkLocked(source int) error {
	if g.closed {
		return ErrClosed
	}
	return g.group.checkSource(source)
}

// configureLocked (re)allocates the backend for the current sizes and
// uploads every buffer.
func (g *Grid) configureLocked() error {
	if g.backend == nil {
		return ErrNotReady
	}
	size := g.model.Grid
	cfg := gpucore.SurfaceConfig{
		Columns:      uint32(size.Columns),
		Rows:         uint32(size.Rows),
		Width:        uint32(g.canvas.X),
		Height:       uint32(g.canvas.Y),
		SampleCount:  g.opts.sampleCount,
		NumViewports: uint32(g.group.capacity),
	}
	if err := g.backend.Configure(cfg); err != nil {
		return fmt.Errorf("gridview: configure backend: %w", err)
	}
	if err := g.backend.UpdateDataBufferStorage(g.group.data); err != nil {
		return fmt.Errorf("gridview: update data: %w", err)
	}
	focus := gpucore.EncodeFocus(size.Columns, size.Rows, g.group.focus.Column, g.group.focus.Row)
	if err := g.backend.UpdateFocusedCellPositionStorage(focus); err != nil {
		return fmt.Errorf("gridview: update focus: %w", err)
	}
	if err := g.backend.UpdateSelectedStateStorage(g.group.selection.Words()); err != nil {
		return fmt.Errorf("gridview: update selection: %w", err)
	}
	if err := g.backend.UpdateViewportStateStorage(g.group.viewports); err != nil {
		return fmt.Errorf("gridview: update viewports: %w", err)
	}
	return g.renderLocked()
}

// renderLocked packs the frame state and submits it. Mutation has already
// happened and storage buffers are current.
func (g *Grid) renderLocked() error {
	if g.backend == nil {
		return ErrNotReady
	}
	f := g.frameLocked()
	size := g.model.Grid
	cols, rows := NumCellsToShow(size, f.Viewport)
	cell := f.CellSize()
	g.detail = gpucore.DetailFor(cell.X, cell.Y, g.opts.detailThreshold)

	show := [2]uint32{uint32(cols), uint32(rows)}
	draws := gpucore.BuildDrawSet(show, uint32(g.group.capacity), g.detail)
	frame := &gpucore.FrameUniforms{
		GridSize:     [2]float32{float32(size.Columns), float32(size.Rows)},
		CanvasSize:   [2]float32{float32(g.canvas.X), float32(g.canvas.Y)},
		HeaderOffset: [2]float32{float32(g.header.X), float32(g.header.Y)},
		Overscroll:   [2]float32{float32(f.Overscroll.X), float32(f.Overscroll.Y)},
		Viewport:     f.Viewport.Float32s(),
		ScrollBar: [4]float32{
			float32(g.opts.scrollBar.Radius),
			float32(g.opts.scrollBar.Margin),
			float32(g.opts.cellMargin),
			0,
		},
	}
	index := &gpucore.IndexUniforms{
		GridSize:       [2]uint32{uint32(size.Columns), uint32(size.Rows)},
		CellsToShow:    show,
		ScrollBarState: uint32(g.scrollBar),
		ViewportIndex:  uint32(g.index),
		Detail:         uint32(g.detail),
		NumViewports:   uint32(g.group.capacity),
	}
	if err := g.backend.UpdateFrame(frame, index, &draws); err != nil {
		return fmt.Errorf("gridview: update frame: %w", err)
	}
	if err := g.backend.Execute(); err != nil {
		return fmt.Errorf("gridview: execute: %w", err)
	}
	return nil
}

// Render submits a frame for the current state.
func (g *Grid) Render() error {
	return g.group.run(func() error {
		if err := g.readyLocked(); err != nil {
			return err
		}
		return g.renderLocked()
	})
}

// SetBackend attaches a render backend, replacing and destroying any
// previous one, and uploads the full state.
func (g *Grid) SetBackend(b gpucore.RenderBackend) error {
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		if g.backend != nil && g.backend != b {
			g.backend.Destroy()
		}
		g.backend = b
		if b == nil {
			return nil
		}
		return g.configureLocked()
	})
}

// RefreshData re-uploads the shared values and renders. source is the
// viewport index the change came from.
func (g *Grid) RefreshData(source int) error {
	return g.group.run(func() error {
		if err := g.checkLocked(source); err != nil {
			return err
		}
		return g.refreshDataLocked(source)
	})
}

// RefreshFocusedState re-uploads the focus array for (column, row) and
// renders. The focus callback fires only when source is this viewport.
func (g *Grid) RefreshFocusedState(source, column, row int) error {
	return g.group.run(func() error {
		if err := g.checkLocked(source); err != nil {
			return err
		}
		return g.refreshFocusedLocked(source, column, row)
	})
}

// RefreshSelectedState re-uploads the shared selection after a click on
// (column, row) with mods at viewport source. The click is not re-applied:
// the selection was already written by the source viewport.
func (g *Grid) RefreshSelectedState(source, column, row int, mods Modifiers) error {
	return g.group.run(func() error {
		if err := g.checkLocked(source); err != nil {
			return err
		}
		return g.refreshSelectedLocked(source, column, row, mods)
	})
}

// RefreshViewportState re-uploads the shared viewport array and renders.
func (g *Grid) RefreshViewportState(source int) error {
	return g.group.run(func() error {
		if err := g.checkLocked(source); err != nil {
			return err
		}
		return g.refreshViewportLocked(source)
	})
}

func (g *Grid) refreshDataLocked(int) error {
	if g.backend == nil {
		return ErrNotReady
	}
	if err := g.backend.UpdateDataBufferStorage(g.group.data); err != nil {
		return fmt.Errorf("gridview: update data: %w", err)
	}
	return g.renderLocked()
}

func (g *Grid) refreshFocusedLocked(source, column, row int) error {
	if fn := g.opts.onFocus; fn != nil && source == g.index {
		focus := CellRef{Column: column, Row: row}
		g.group.queue(func() { fn(focus) })
	}
	if g.backend == nil {
		return ErrNotReady
	}
	size := g.model.Grid
	if err := g.backend.UpdateFocusedCellPositionStorage(gpucore.EncodeFocus(size.Columns, size.Rows, column, row)); err != nil {
		return fmt.Errorf("gridview: update focus: %w", err)
	}
	return g.renderLocked()
}

func (g *Grid) refreshSelectedLocked(source, column, row int, mods Modifiers) error {
	if fn := g.opts.onSelect; fn != nil && source == g.index {
		target := CellRef{Column: column, Row: row}
		g.group.queue(func() { fn(target, mods) })
	}
	if g.backend == nil {
		return ErrNotReady
	}
	if err := g.backend.UpdateSelectedStateStorage(g.group.selection.Words()); err != nil {
		return fmt.Errorf("gridview: update selection: %w", err)
	}
	return g.renderLocked()
}

func (g *Grid) refreshViewportLocked(source int) error {
	if fn := g.opts.onViewport; fn != nil && source == g.index {
		index, r := g.index, g.model.Rect
		g.group.queue(func() { fn(index, r) })
	}
	if g.backend == nil {
		return ErrNotReady
	}
	if err := g.backend.UpdateViewportStateStorage(g.group.viewports); err != nil {
		return fmt.Errorf("gridview: update viewports: %w", err)
	}
	return g.renderLocked()
}

// publishViewportLocked writes this viewport's slot, then replays it on
// every member.
func (g *Grid) publishViewportLocked() error {
	g.group.viewports[g.index] = g.model.Rect.Float32s()
	return g.group.broadcastViewportLocked(g.index)
}

func (g *Grid) gestureContextLocked() GestureContext {
	return GestureContext{
		Grid:         g.model.Grid,
		Frame:        g.frameLocked(),
		ScrollBar:    g.opts.scrollBar,
		TickInterval: g.opts.tickInterval,
	}
}

// PointerDown starts a gesture. Any running inertia is cancelled.
func (g *Grid) PointerDown(ev PointerEvent) error {
	return g.group.run(func() error {
		if err := g.readyLocked(); err != nil {
			return err
		}
		g.ticker.Stop()
		g.model.Velocity = Vec2{}
		ctx := g.gestureContextLocked()
		hit := Classify(ctx.Grid, ctx.Frame, ctx.ScrollBar, ev.Client)
		next, actions := g.gesture.PointerDown(ctx, ev, hit)
		g.gesture = next
		return g.applyLocked(actions)
	})
}

// PointerMove pans, drags a scrollbar, extends a header selection or, while
// idle, updates focus and the scrollbar hover state.
func (g *Grid) PointerMove(ev PointerEvent) error {
	return g.group.run(func() error {
		if err := g.readyLocked(); err != nil {
			return err
		}
		ctx := g.gestureContextLocked()
		hit := Classify(ctx.Grid, ctx.Frame, ctx.ScrollBar, ev.Client)
		next, actions := g.gesture.PointerMove(ctx, ev, hit)
		g.gesture = next
		return g.applyLocked(actions)
	})
}

// PointerUp ends the gesture and hands the release velocity to the ticker.
func (g *Grid) PointerUp(ev PointerEvent) error {
	return g.pointerEnd(ev, false)
}

// PointerLeave ends the gesture like PointerUp and marks the pointer out of
// frame.
func (g *Grid) PointerLeave(ev PointerEvent) error {
	return g.pointerEnd(ev, true)
}

func (g *Grid) pointerEnd(ev PointerEvent, leave bool) error {
	return g.group.run(func() error {
		if err := g.readyLocked(); err != nil {
			return err
		}
		ctx := g.gestureContextLocked()
		next, actions := g.gesture.PointerUp(ev)
		g.gesture = next
		if leave {
			g.scrollBar = ScrollBarOutOfFrame
		} else {
			g.scrollBar = Classify(ctx.Grid, ctx.Frame, ctx.ScrollBar, ev.Client).ScrollBarState()
		}
		return g.applyLocked(actions)
	})
}

// Wheel zooms by one notch around the pointer: deltaY > 0 zooms out,
// deltaY < 0 zooms in.
func (g *Grid) Wheel(client Vec2, deltaY float64) error {
	if deltaY == 0 {
		return nil
	}
	s := g.opts.zoomStep
	if deltaY < 0 {
		s = 1 / s
	}
	return g.ZoomAt(client, s)
}

// ZoomAt scales the viewport by s around the grid point under client.
func (g *Grid) ZoomAt(client Vec2, s float64) error {
	return g.group.run(func() error {
		if err := g.readyLocked(); err != nil {
			return err
		}
		anchor := g.frameLocked().ClientToWorld(client)
		r := ZoomAt(g.model.Grid, g.model.Rect, anchor, s, g.opts.minCells)
		cell := Frame{Viewport: r, Canvas: g.canvas, Header: g.header}.CellSize()
		g.model.Regulate(cell, r, false)
		err := g.publishViewportLocked()
		g.kickLocked()
		return err
	})
}

// SetViewport moves the viewport to r, clamped to the grid.
func (g *Grid) SetViewport(r Rect) error {
	if !r.Valid() || r.Width() <= 0 || r.Height() <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidViewport, r)
	}
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		cell := Frame{Viewport: r, Canvas: g.canvas, Header: g.header}.CellSize()
		g.model.Regulate(cell, r, false)
		err := g.publishViewportLocked()
		g.kickLocked()
		return err
	})
}

func (g *Grid) applyLocked(actions []Action) error {
	var errs []error
	for _, a := range actions {
		if err := g.applyActionLocked(a); err != nil {
			errs = append(errs, err)
		}
	}
	g.kickLocked()
	return errors.Join(errs...)
}

// kickLocked starts the ticker when nothing holds the viewport and it is
// still moving.
func (g *Grid) kickLocked() {
	if !g.gesture.Active() && g.model.Moving() && !g.ticker.Running() {
		Logger().Debug("gridview: inertia start", "index", g.index,
			"velocity", g.model.Velocity, "overscroll", g.model.Overscroll)
		g.ticker.Start()
	}
}

func (g *Grid) applyActionLocked(a Action) error {
	switch a.Kind {
	case ActionSelect:
		return g.group.selectLocked(g.index, a.Target, a.Modifiers)
	case ActionExtendSelect:
		return g.group.selectLocked(g.index, a.Target, a.Modifiers|ModShift)
	case ActionPageJump:
		r := PageJump(g.model.Grid, g.model.Rect, a.Axis, a.Direction)
		g.model.Regulate(g.frameLocked().CellSize(), r, false)
		return g.publishViewportLocked()
	case ActionPan:
		g.model.Regulate(a.CellSize, a.Proposed, g.opts.allowOverscroll)
		return g.publishViewportLocked()
	case ActionScrollTo:
		g.model.Regulate(a.CellSize, a.Proposed, false)
		return g.publishViewportLocked()
	case ActionHover:
		changed := g.scrollBar != a.ScrollBar
		g.scrollBar = a.ScrollBar
		if a.Target != g.group.focus {
			return g.group.setFocusLocked(g.index, a.Target)
		}
		if changed {
			return g.renderLocked()
		}
		return nil
	case ActionRelease:
		g.model.Velocity = a.Velocity
		if g.group.focus == NoCell {
			return g.renderLocked()
		}
		return g.group.setFocusLocked(g.index, NoCell)
	default:
		return nil
	}
}

// tick is one inertia step. It reports whether another tick is needed.
func (g *Grid) tick() bool {
	more := false
	err := g.group.run(func() error {
		if g.closed || g.gesture.Active() {
			return nil
		}
		more = g.model.Inertia(g.frameLocked().CellSize(), InertiaOptions{
			VelocityFriction: g.opts.velocityFriction,
			VelocityEpsilon:  g.opts.velocityEpsilon,
		})
		return g.publishViewportLocked()
	})
	if err != nil && !errors.Is(err, ErrNotReady) {
		Logger().Warn("gridview: inertia render failed", "index", g.index, "err", err)
	}
	if !more {
		Logger().Debug("gridview: inertia settled", "index", g.index)
	}
	return more
}

// Select applies the click selection policy programmatically.
func (g *Grid) Select(target CellRef, mods Modifiers) error {
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		return g.group.selectLocked(g.index, target, mods)
	})
}

// ClearSelection deselects every cell.
func (g *Grid) ClearSelection() error {
	if g.isClosed() {
		return ErrClosed
	}
	return g.group.ClearSelection(g.index)
}

// SetData replaces every cell value.
func (g *Grid) SetData(values []float32) error {
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		return g.group.setDataLocked(g.index, values)
	})
}

// Step advances the attached data source and uploads its buffer when it
// changed.
func (g *Grid) Step() error {
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		if g.source == nil {
			return ErrNoDataSource
		}
		changed, err := g.source.Step()
		if err != nil {
			return fmt.Errorf("gridview: %s source step: %w", g.source.Kind(), err)
		}
		if !changed {
			return nil
		}
		return g.group.setDataLocked(g.index, g.source.Buffer())
	})
}

// Resize changes the canvas size and reconfigures the backend.
func (g *Grid) Resize(width, height int) error {
	canvas := V2(float64(width), float64(height))
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		if err := validateCanvas(canvas, g.header); err != nil {
			return err
		}
		g.canvas = canvas
		if g.backend == nil {
			return nil
		}
		return g.configureLocked()
	})
}

// SetGridSize changes the grid size of the whole group. Every member is
// reset to show the whole grid; values, selection and focus are cleared,
// and the data source, if any, is resized and re-uploaded.
func (g *Grid) SetGridSize(size GridSize) error {
	if err := size.Validate(); err != nil {
		return err
	}
	return g.group.run(func() error {
		if g.closed {
			return ErrClosed
		}
		g.ticker.Stop()
		if g.source != nil {
			if err := g.source.UpdateGridSize(size); err != nil {
				return fmt.Errorf("gridview: resize %s source: %w", g.source.Kind(), err)
			}
		}
		if err := g.group.resizeLocked(g.index, size); err != nil {
			return err
		}
		Logger().Debug("gridview: grid size changed", "columns", size.Columns, "rows", size.Rows)
		if g.source != nil {
			return g.group.setDataLocked(g.index, g.source.Buffer())
		}
		return nil
	})
}

// Close stops the ticker, leaves the group and destroys the backend.
// Calling Close more than once is a no-op.
func (g *Grid) Close() error {
	g.ticker.Stop()
	return g.group.run(func() error {
		if g.closed {
			return nil
		}
		g.closed = true
		g.group.leaveLocked(g.index)
		if g.backend != nil {
			g.backend.Destroy()
			g.backend = nil
		}
		return nil
	})
}

func (g *Grid) isClosed() bool {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.closed
}

// Index returns the viewport index within the group.
func (g *Grid) Index() int { return g.index }

// Group returns the shared state.
func (g *Grid) Group() *Group { return g.group }

// Size returns the grid size.
func (g *Grid) Size() GridSize {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.model.Grid
}

// Viewport returns the viewport rectangle.
func (g *Grid) Viewport() Rect {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.model.Rect
}

// Overscroll returns the elastic offset in pixels.
func (g *Grid) Overscroll() Vec2 {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.model.Overscroll
}

// Velocity returns the inertia velocity in cells per tick.
func (g *Grid) Velocity() Vec2 {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.model.Velocity
}

// Frame returns the transform inputs of the current frame.
func (g *Grid) Frame() Frame {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.frameLocked()
}

// ScrollBarState returns the scrollbar hover state.
func (g *Grid) ScrollBarState() ScrollBarState {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.scrollBar
}

// GestureKind returns the current gesture.
func (g *Grid) GestureKind() GestureKind {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.gesture.Kind
}

// Detail returns the cell geometry chosen for the last frame.
func (g *Grid) Detail() gpucore.GeometryDetail {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	return g.detail
}

// Focus returns the focused cell of the group.
func (g *Grid) Focus() CellRef { return g.group.Focus() }

// Anchor returns the selection anchor of the group.
func (g *Grid) Anchor() CellRef { return g.group.Anchor() }

// Selected reports whether a cell is selected.
func (g *Grid) Selected(column, row int) bool {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	if g.group.selection == nil {
		return false
	}
	return g.group.selection.Get(column, row)
}

// SelectedCount returns the number of selected cells.
func (g *Grid) SelectedCount() int {
	g.group.mu.Lock()
	defer g.group.mu.Unlock()
	if g.group.selection == nil {
		return 0
	}
	return g.group.selection.Count()
}

// Animating reports whether the inertia ticker is scheduled.
func (g *Grid) Animating() bool { return g.ticker.Running() }
