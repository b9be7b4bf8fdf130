package scenario

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gogpu/gridview"
	"github.com/gogpu/gridview/gpucore"
)

// BackendFunc creates the render backend of viewport i.
type BackendFunc func(i int) (gpucore.RenderBackend, error)

// Session is a scenario bound to live grids.
type Session struct {
	sc    *Scenario
	group *gridview.Group
	grids []*gridview.Grid
	sched *FrameScheduler
	clock time.Duration
}

// Open creates the group and one grid per viewport. Viewports split the
// grid into vertical bands so a multi-viewport scenario starts with every
// member looking at a different part.
func Open(sc *Scenario, newBackend BackendFunc) (*Session, error) {
	size := sc.GridSize()
	group, err := gridview.NewGroup(size, sc.Viewports)
	if err != nil {
		return nil, err
	}
	s := &Session{sc: sc, group: group, sched: &FrameScheduler{}}

	for i := range sc.Viewports {
		opts := []gridview.GridOption{
			gridview.WithGroup(group),
			gridview.WithCanvasSize(sc.Canvas[0], sc.Canvas[1]),
			gridview.WithHeaderOffset(sc.Header[0], sc.Header[1]),
			gridview.WithScrollBar(sc.ScrollBar[0], sc.ScrollBar[1]),
			gridview.WithSampleCount(sc.SampleCount),
			gridview.WithScheduler(s.sched),
		}
		if sc.Viewports > 1 {
			band := float64(size.Columns) / float64(sc.Viewports)
			opts = append(opts, gridview.WithViewport(gridview.Rect{
				Left: band * float64(i), Top: 0,
				Right: band * float64(i+1), Bottom: float64(size.Rows),
			}))
		}
		if sc.Overscroll != nil {
			opts = append(opts, gridview.WithOverscrollEnabled(*sc.Overscroll))
		}
		if sc.ZoomStep > 0 {
			opts = append(opts, gridview.WithZoomStep(sc.ZoomStep))
		}
		var backend gpucore.RenderBackend
		if newBackend != nil {
			b, err := newBackend(i)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("scenario: backend %d: %w", i, err)
			}
			backend = b
			opts = append(opts, gridview.WithBackend(b))
		}
		if i == 0 {
			src, err := sc.NewSource()
			if err != nil {
				s.Close()
				return nil, err
			}
			opts = append(opts, gridview.WithDataSource(src))
		}
		g, err := gridview.NewGrid(size, opts...)
		if err != nil {
			if backend != nil {
				backend.Destroy()
			}
			s.Close()
			return nil, err
		}
		s.grids = append(s.grids, g)
	}
	return s, nil
}

// Grids returns the viewports in index order.
func (s *Session) Grids() []*gridview.Grid { return s.grids }

// Group returns the shared state.
func (s *Session) Group() *gridview.Group { return s.group }

// Run applies every step and writes one trace line per step to w.
func (s *Session) Run(w io.Writer) error {
	for i, st := range s.sc.Steps {
		if err := s.Apply(st); err != nil {
			return fmt.Errorf("scenario: step %d (%s): %w", i, st.Action, err)
		}
		if w != nil {
			if _, err := fmt.Fprintf(w, "%3d %-8s %s\n", i, st.Action, s.Trace(st.Viewport)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Trace formats the observable state of viewport i.
func (s *Session) Trace(i int) string {
	g := s.grids[i]
	r := g.Viewport()
	o := g.Overscroll()
	focus := g.Focus()
	return fmt.Sprintf("vp=%d rect=[%.3f %.3f %.3f %.3f] overscroll=(%.2f, %.2f) gesture=%s scrollbar=%s selected=%d focus=(%d, %d) animating=%t",
		i, r.Left, r.Top, r.Right, r.Bottom, o.X, o.Y, g.GestureKind(), g.ScrollBarState(),
		g.SelectedCount(), focus.Column, focus.Row, g.Animating())
}

// Apply runs a single step.
func (s *Session) Apply(st Step) error {
	g := s.grids[st.Viewport]
	var mods gridview.Modifiers
	if st.Shift {
		mods |= gridview.ModShift
	}
	if st.Ctrl {
		mods |= gridview.ModCtrl
	}
	pointer := func() gridview.PointerEvent {
		s.clock += time.Duration(st.DT) * time.Millisecond
		return gridview.PointerEvent{Client: gridview.V2(st.X, st.Y), Modifiers: mods, Time: s.clock}
	}

	switch st.Action {
	case ActionDown:
		return g.PointerDown(pointer())
	case ActionMove:
		return g.PointerMove(pointer())
	case ActionUp:
		return g.PointerUp(pointer())
	case ActionLeave:
		return g.PointerLeave(pointer())
	case ActionWheel:
		return g.Wheel(gridview.V2(st.X, st.Y), st.Delta)
	case ActionZoom:
		return g.ZoomAt(gridview.V2(st.X, st.Y), st.Scale)
	case ActionSelect:
		return g.Select(gridview.CellRef{Column: st.Column, Row: st.Row}, mods)
	case ActionClear:
		return g.ClearSelection()
	case ActionTick:
		s.sched.Run(st.Count)
		return nil
	case ActionStep:
		for range st.Count {
			if err := g.Step(); err != nil && !errors.Is(err, gridview.ErrNoDataSource) {
				return err
			}
		}
		return nil
	case ActionResize:
		return g.Resize(st.Width, st.Height)
	case ActionViewport:
		return g.SetViewport(gridview.Rect{Left: st.Rect[0], Top: st.Rect[1], Right: st.Rect[2], Bottom: st.Rect[3]})
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, st.Action)
}

// Close closes every grid. The last one releases the group.
func (s *Session) Close() error {
	var errs []error
	for _, g := range s.grids {
		errs = append(errs, g.Close())
	}
	s.grids = nil
	return errors.Join(errs...)
}

// FrameScheduler fires inertia ticks only when a tick step advances frames.
type FrameScheduler struct {
	mu      sync.Mutex
	pending []*frameTimer
}

type frameTimer struct {
	f    func()
	done bool
}

func (t *frameTimer) Stop() bool {
	was := !t.done
	t.done = true
	return was
}

// AfterFunc queues f for the next frame.
func (s *FrameScheduler) AfterFunc(_ time.Duration, f func()) gridview.Timer {
	t := &frameTimer{f: f}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()
	return t
}

// Fire runs every timer queued so far and returns how many ran.
func (s *FrameScheduler) Fire() int {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	n := 0
	for _, t := range p {
		if t.done {
			continue
		}
		t.done = true
		t.f()
		n++
	}
	return n
}

// Run fires up to frames rounds, stopping early once nothing is queued.
func (s *FrameScheduler) Run(frames int) int {
	n := 0
	for n < frames && s.Fire() > 0 {
		n++
	}
	return n
}
