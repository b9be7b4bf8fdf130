package gridview

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/gridview/gpucore"
)

func newTestGrid(t *testing.T, opts ...GridOption) (*Grid, *fakeBackend, *manualScheduler) {
	t.Helper()
	b := &fakeBackend{}
	sched := &manualScheduler{}
	base := []GridOption{
		WithCanvasSize(200, 200),
		WithScrollBar(6, 2),
		WithBackend(b),
		WithScheduler(sched),
	}
	g, err := NewGrid(grid16, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g, b, sched
}

func TestNewGridConfiguresBackend(t *testing.T) {
	_, b, _ := newTestGrid(t)

	want := gpucore.SurfaceConfig{Columns: 16, Rows: 16, Width: 200, Height: 200, SampleCount: 4, NumViewports: 1}
	if b.cfg != want {
		t.Errorf("cfg = %+v, want %+v", b.cfg, want)
	}
	order := []string{"configure", "data", "focus", "selection", "viewports", "frame", "execute"}
	if !slices.Equal(b.calls, order) {
		t.Errorf("calls = %v, want %v", b.calls, order)
	}
	if b.frame.Viewport != [4]float32{0, 0, 16, 16} {
		t.Errorf("frame viewport = %v", b.frame.Viewport)
	}
	if b.index.CellsToShow != [2]uint32{16, 16} {
		t.Errorf("CellsToShow = %v, want [16 16]", b.index.CellsToShow)
	}
	if got := b.draws[gpucore.LayerBody].InstanceCount; got != 256 {
		t.Errorf("body instances = %d, want 256", got)
	}
	if len(b.selection) != 8 || len(b.focus) != 16 || len(b.data) != 256 {
		t.Errorf("buffer lengths: selection %d focus %d data %d", len(b.selection), len(b.focus), len(b.data))
	}
}

func TestNewGridValidation(t *testing.T) {
	small, err := NewStaticSource(GridSize{Columns: 4, Rows: 4})
	if err != nil {
		t.Fatal(err)
	}
	shared, err := NewGroup(grid16, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		size GridSize
		opts []GridOption
		want error
	}{
		{"grid size", GridSize{Columns: 0, Rows: 4}, nil, ErrInvalidGridSize},
		{"canvas", grid16, []GridOption{WithCanvasSize(0, 100)}, ErrInvalidCanvasSize},
		{"header too big", grid16, []GridOption{WithCanvasSize(100, 100), WithHeaderOffset(100, 10)}, ErrInvalidCanvasSize},
		{"viewport", grid16, []GridOption{WithViewport(Rect{4, 4, 2, 8})}, ErrInvalidViewport},
		{"source length", grid16, []GridOption{WithDataSource(small)}, ErrDataLength},
		{"source length in group", grid16, []GridOption{WithGroup(shared), WithDataSource(small)}, ErrDataLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.size, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewGrid() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := shared.Len(); n != 0 {
		t.Errorf("group Len = %d after failed NewGrid, want 0", n)
	}
}

func TestGridPanIntoOverscrollAndSettle(t *testing.T) {
	g, b, sched := newTestGrid(t)

	if err := g.PointerDown(PointerEvent{Client: V2(100, 100)}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	if g.GestureKind() != GesturePanning {
		t.Fatalf("gesture = %v, want panning", g.GestureKind())
	}
	if err := g.PointerMove(PointerEvent{Client: V2(150, 100)}); err != nil {
		t.Fatalf("PointerMove: %v", err)
	}
	if got := g.Viewport(); got != FullRect(grid16) {
		t.Errorf("viewport = %v, want full grid", got)
	}
	if got := g.Overscroll(); got.X == 0 || math.Abs(got.X+50) > 1e-9 {
		t.Errorf("overscroll = %v, want x = -50", got)
	}
	if b.frame.Overscroll != [2]float32{-50, 0} {
		t.Errorf("uploaded overscroll = %v", b.frame.Overscroll)
	}

	if err := g.PointerUp(PointerEvent{Client: V2(150, 100)}); err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if !g.Animating() {
		t.Fatal("expected inertia after releasing into overscroll")
	}
	sched.Run(2000)
	if g.Animating() {
		t.Fatal("inertia did not settle")
	}
	if !g.Overscroll().IsZero() || !g.Velocity().IsZero() {
		t.Errorf("settled with overscroll %v velocity %v", g.Overscroll(), g.Velocity())
	}
	if b.frame.Overscroll != [2]float32{0, 0} {
		t.Errorf("last uploaded overscroll = %v", b.frame.Overscroll)
	}
}

func TestGridFlingPastEdgeOnlySpringsBack(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name string
		dir  Vec2
	}{
		{"right", V2(1, 0)},
		{"left", V2(-1, 0)},
		{"down", V2(0, 1)},
		{"up", V2(0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, sched := newTestGrid(t)
			at := func(px float64) Vec2 { return V2(100, 100).Add(tt.dir.Mul(px)) }

			steps := []struct {
				fn func(PointerEvent) error
				ev PointerEvent
			}{
				{g.PointerDown, PointerEvent{Client: at(0), Time: 1 * ms}},
				{g.PointerMove, PointerEvent{Client: at(10), Time: 16 * ms}},
				{g.PointerMove, PointerEvent{Client: at(50), Time: 20 * ms}},
				{g.PointerUp, PointerEvent{Client: at(50), Time: 20 * ms}},
			}
			for _, st := range steps {
				if err := st.fn(st.ev); err != nil {
					t.Fatal(err)
				}
			}
			prev := g.Overscroll()
			if math.Abs(math.Abs(prev.X)+math.Abs(prev.Y)-50) > 1e-9 {
				t.Fatalf("overscroll at release = %v, want magnitude 50", prev)
			}

			for tick := 1; g.Animating(); tick++ {
				if tick > 2000 {
					t.Fatal("inertia did not settle")
				}
				sched.Fire()
				got := g.Overscroll()
				if math.Abs(got.X) > math.Abs(prev.X) || math.Abs(got.Y) > math.Abs(prev.Y) {
					t.Fatalf("tick %d: overscroll grew from %v to %v", tick, prev, got)
				}
				if tick == 1 {
					want := prev.Mul(DefaultOverscrollFriction)
					if !got.Approx(want, 1e-9) {
						t.Errorf("first tick overscroll = %v, want %v", got, want)
					}
				}
				if g.Viewport() != FullRect(grid16) {
					t.Fatalf("tick %d: viewport moved to %v", tick, g.Viewport())
				}
				prev = got
			}
			if !g.Overscroll().IsZero() {
				t.Errorf("settled with overscroll %v", g.Overscroll())
			}
		})
	}
}

func TestGridHeaderDragDoesNotPan(t *testing.T) {
	tests := []struct {
		name     string
		from, to Vec2
	}{
		{"column header", V2(100, 10), V2(160, 14)},
		{"row header", V2(10, 100), V2(14, 160)},
		{"corner", V2(5, 5), V2(120, 120)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGrid(t, WithHeaderOffset(20, 20), WithViewport(Rect{4, 4, 12, 12}))
			before := g.Viewport()
			if err := g.PointerDown(PointerEvent{Client: tt.from}); err != nil {
				t.Fatal(err)
			}
			if g.GestureKind() != GestureHeaderRangeSelecting {
				t.Fatalf("gesture = %v, want header range selecting", g.GestureKind())
			}
			if err := g.PointerMove(PointerEvent{Client: tt.to}); err != nil {
				t.Fatal(err)
			}
			if err := g.PointerUp(PointerEvent{Client: tt.to}); err != nil {
				t.Fatal(err)
			}
			if got := g.Viewport(); got != before {
				t.Errorf("viewport = %v after a header drag, want %v", got, before)
			}
			if !g.Overscroll().IsZero() || g.Animating() {
				t.Errorf("overscroll %v, animating %v after a header drag", g.Overscroll(), g.Animating())
			}
		})
	}
}

func TestGridZoomKeepsCenter(t *testing.T) {
	g, b, _ := newTestGrid(t)
	before := g.Viewport()
	if err := g.ZoomAt(V2(100, 100), 0.98); err != nil {
		t.Fatalf("ZoomAt: %v", err)
	}
	after := g.Viewport()
	if after.Width() >= before.Width() || after.Height() >= before.Height() {
		t.Fatalf("viewport %v did not shrink from %v", after, before)
	}
	if c := after.Center(); !c.Approx(before.Center(), 1e-3) {
		t.Errorf("center = %v, want %v", c, before.Center())
	}
	if b.index.CellsToShow != [2]uint32{16, 16} {
		t.Errorf("CellsToShow = %v", b.index.CellsToShow)
	}

	if err := g.Wheel(V2(100, 100), -120); err != nil {
		t.Fatalf("Wheel: %v", err)
	}
	if w := g.Viewport().Width(); math.Abs(w-after.Width()/1.025) > 1e-9 {
		t.Errorf("width after wheel = %v, want %v", w, after.Width()/1.025)
	}
	if err := g.Wheel(V2(100, 100), 0); err != nil {
		t.Errorf("Wheel(0) = %v", err)
	}
}

func TestGridCtrlClickColumnHeaderTwice(t *testing.T) {
	g, b, _ := newTestGrid(t, WithCanvasSize(220, 220), WithHeaderOffset(20, 20))

	click := func() {
		t.Helper()
		ev := PointerEvent{Client: V2(62.5, 10), Modifiers: ModCtrl}
		if err := g.PointerDown(ev); err != nil {
			t.Fatalf("PointerDown: %v", err)
		}
		if err := g.PointerUp(ev); err != nil {
			t.Fatalf("PointerUp: %v", err)
		}
	}

	click()
	if n := g.SelectedCount(); n != 16 {
		t.Fatalf("after first click %d selected, want 16", n)
	}
	for row := range 16 {
		if !g.Selected(3, row) {
			t.Fatalf("cell (3, %d) not selected", row)
		}
	}
	click()
	if n := g.SelectedCount(); n != 0 {
		t.Errorf("after second click %d selected, want 0", n)
	}
	for _, w := range b.selection {
		if w != 0 {
			t.Fatalf("uploaded selection not cleared: %v", b.selection)
		}
	}
}

func TestGridPageJumpOnTrack(t *testing.T) {
	g, _, _ := newTestGrid(t, WithViewport(Rect{0, 0, 8, 8}))
	// horizontal bar runs along y = 200-2-6; its handle covers the first half
	if err := g.PointerDown(PointerEvent{Client: V2(150, 192)}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	if g.GestureKind() != GestureIdle {
		t.Errorf("gesture = %v, want idle", g.GestureKind())
	}
	if got := g.Viewport(); got != (Rect{8, 0, 16, 8}) {
		t.Errorf("viewport = %v, want {8 0 16 8}", got)
	}
}

func TestGridScrollBarHover(t *testing.T) {
	g, b, _ := newTestGrid(t, WithViewport(Rect{0, 0, 8, 8}))
	if err := g.PointerMove(PointerEvent{Client: V2(40, 192)}); err != nil {
		t.Fatalf("PointerMove: %v", err)
	}
	if g.ScrollBarState() != ScrollBarHorizontalFocused {
		t.Errorf("state = %v, want horizontal", g.ScrollBarState())
	}
	if b.index.ScrollBarState != uint32(ScrollBarHorizontalFocused) {
		t.Errorf("uploaded state = %d", b.index.ScrollBarState)
	}
	if err := g.PointerLeave(PointerEvent{Client: V2(-1, -1)}); err != nil {
		t.Fatalf("PointerLeave: %v", err)
	}
	if g.ScrollBarState() != ScrollBarOutOfFrame {
		t.Errorf("state after leave = %v, want out-of-frame", g.ScrollBarState())
	}
}

func TestGridPointerDownCancelsInertia(t *testing.T) {
	g, _, sched := newTestGrid(t, WithViewport(Rect{4, 4, 8, 8}))
	_ = g.PointerDown(PointerEvent{Client: V2(100, 100)})
	_ = g.PointerMove(PointerEvent{Client: V2(80, 100)})
	_ = g.PointerUp(PointerEvent{Client: V2(80, 100)})
	if !g.Animating() || g.Velocity().IsZero() {
		t.Fatalf("expected inertia, velocity %v", g.Velocity())
	}
	_ = g.PointerDown(PointerEvent{Client: V2(80, 100)})
	if g.Animating() {
		t.Error("PointerDown did not cancel inertia")
	}
	if sched.Run(10) != 0 {
		t.Error("stale tick fired after PointerDown")
	}
}

func TestGridDetailFollowsZoom(t *testing.T) {
	b := &fakeBackend{}
	g, err := NewGrid(GridSize{Columns: 1000, Rows: 1000},
		WithCanvasSize(200, 200), WithBackend(b), WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	if g.Detail() != gpucore.GeometryBorderless {
		t.Errorf("detail = %v, want borderless at 0.2px per cell", g.Detail())
	}
	if b.draws[gpucore.LayerBody].FirstVertex != gpucore.GeometryBorderless.FirstVertex() {
		t.Errorf("body first vertex = %d", b.draws[gpucore.LayerBody].FirstVertex)
	}
	if err := g.SetViewport(Rect{0, 0, 10, 10}); err != nil {
		t.Fatal(err)
	}
	if g.Detail() != gpucore.GeometryMargined {
		t.Errorf("detail = %v, want margined at 20px per cell", g.Detail())
	}
}

func TestGridNotReady(t *testing.T) {
	g, err := NewGrid(grid16, WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	if err := g.PointerDown(PointerEvent{Client: V2(10, 10)}); !errors.Is(err, ErrNotReady) {
		t.Errorf("PointerDown = %v, want ErrNotReady", err)
	}
	if err := g.Render(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Render = %v, want ErrNotReady", err)
	}

	b := &fakeBackend{}
	if err := g.SetBackend(b); err != nil {
		t.Fatalf("SetBackend: %v", err)
	}
	if b.configured != 1 || b.executed != 1 {
		t.Errorf("configured %d executed %d, want 1 1", b.configured, b.executed)
	}
	if err := g.PointerDown(PointerEvent{Client: V2(10, 10)}); err != nil {
		t.Errorf("PointerDown after SetBackend = %v", err)
	}
}

func TestGridExecuteError(t *testing.T) {
	g, b, _ := newTestGrid(t)
	boom := errors.New("device lost")
	b.failExec = boom
	if err := g.Render(); !errors.Is(err, boom) {
		t.Errorf("Render = %v, want wrapped %v", err, boom)
	}
}

func TestGridSetDataAndStep(t *testing.T) {
	src, err := NewFuncSource(grid16, func(col, row int, _ GridSize, prev []float32, _ map[string]float64) float32 {
		return prev[row*16+col] + 1
	})
	if err != nil {
		t.Fatal(err)
	}
	g, b, _ := newTestGrid(t, WithDataSource(src))

	if err := g.SetData(make([]float32, 5)); !errors.Is(err, ErrDataLength) {
		t.Errorf("SetData(short) = %v, want ErrDataLength", err)
	}
	values := make([]float32, 256)
	values[17] = 3
	if err := g.SetData(values); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if b.data[17] != 3 {
		t.Errorf("uploaded data[17] = %v, want 3", b.data[17])
	}

	b.reset()
	if err := g.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if b.data[0] != 1 || b.data[255] != 1 {
		t.Errorf("data after step = %v..%v, want 1", b.data[0], b.data[255])
	}
	if !slices.Equal(b.calls, []string{"data", "frame", "execute"}) {
		t.Errorf("calls = %v", b.calls)
	}

	plain, _, _ := newTestGrid(t)
	if err := plain.Step(); !errors.Is(err, ErrNoDataSource) {
		t.Errorf("Step without source = %v, want ErrNoDataSource", err)
	}
}

func TestGridResize(t *testing.T) {
	g, b, _ := newTestGrid(t)
	if err := g.Resize(400, 300); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if b.cfg.Width != 400 || b.cfg.Height != 300 || b.configured != 2 {
		t.Errorf("cfg = %+v after %d configures", b.cfg, b.configured)
	}
	if b.frame.CanvasSize != [2]float32{400, 300} {
		t.Errorf("CanvasSize = %v", b.frame.CanvasSize)
	}
	if err := g.Resize(0, 10); !errors.Is(err, ErrInvalidCanvasSize) {
		t.Errorf("Resize(0, 10) = %v, want ErrInvalidCanvasSize", err)
	}
}

func TestGridSetGridSize(t *testing.T) {
	g, b, _ := newTestGrid(t, WithViewport(Rect{2, 2, 6, 6}))
	_ = g.Select(CellRef{1, 1}, 0)

	size := GridSize{Columns: 40, Rows: 8}
	if err := g.SetGridSize(size); err != nil {
		t.Fatalf("SetGridSize: %v", err)
	}
	if g.Size() != size || g.Viewport() != FullRect(size) {
		t.Errorf("size %v viewport %v", g.Size(), g.Viewport())
	}
	if g.SelectedCount() != 0 {
		t.Errorf("selection survived resize")
	}
	if b.cfg.Columns != 40 || b.cfg.Rows != 8 || len(b.data) != 320 || len(b.focus) != 40 {
		t.Errorf("cfg %+v data %d focus %d", b.cfg, len(b.data), len(b.focus))
	}
	if err := g.SetGridSize(GridSize{}); !errors.Is(err, ErrInvalidGridSize) {
		t.Errorf("SetGridSize(0x0) = %v", err)
	}
}

func TestGridClose(t *testing.T) {
	g, b, _ := newTestGrid(t)
	group := g.Group()
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if b.destroyed != 1 {
		t.Errorf("backend destroyed %d times, want 1", b.destroyed)
	}
	if !group.Released() {
		t.Error("private group not released")
	}
	if err := g.PointerDown(PointerEvent{}); !errors.Is(err, ErrClosed) {
		t.Errorf("PointerDown after Close = %v, want ErrClosed", err)
	}
	if err := g.SetData(make([]float32, 256)); !errors.Is(err, ErrClosed) {
		t.Errorf("SetData after Close = %v, want ErrClosed", err)
	}
}
