package gridview

import (
	"math"
	"testing"
	"time"
)

func gestureCtx(vp Rect) GestureContext {
	return GestureContext{
		Grid:         grid16,
		Frame:        hitFrame(vp),
		ScrollBar:    testScrollBar,
		TickInterval: DefaultTickInterval,
	}
}

func down(ctx GestureContext, g Gesture, ev PointerEvent) (Gesture, []Action) {
	return g.PointerDown(ctx, ev, Classify(ctx.Grid, ctx.Frame, ctx.ScrollBar, ev.Client))
}

func move(ctx GestureContext, g Gesture, ev PointerEvent) (Gesture, []Action) {
	return g.PointerMove(ctx, ev, Classify(ctx.Grid, ctx.Frame, ctx.ScrollBar, ev.Client))
}

func TestGesturePanLifecycle(t *testing.T) {
	ctx := gestureCtx(Rect{0, 0, 8, 8})

	g, actions := down(ctx, Gesture{}, PointerEvent{Client: V2(96, 146), Modifiers: ModCtrl})
	if g.Kind != GesturePanning {
		t.Fatalf("Kind = %v, want panning", g.Kind)
	}
	if len(actions) != 1 || actions[0].Kind != ActionSelect {
		t.Fatalf("actions = %+v, want one select", actions)
	}
	if actions[0].Target != (CellRef{3, 5}) || actions[0].Modifiers != ModCtrl {
		t.Errorf("select = %+v", actions[0])
	}
	if g.StartCellSize != V2(25, 25) {
		t.Errorf("StartCellSize = %v, want (25, 25)", g.StartCellSize)
	}

	g, actions = move(ctx, g, PointerEvent{Client: V2(146, 146), Time: 16 * time.Millisecond})
	if len(actions) != 1 || actions[0].Kind != ActionPan {
		t.Fatalf("actions = %+v, want one pan", actions)
	}
	if want := (Rect{-2, 0, 6, 8}); actions[0].Proposed != want {
		t.Errorf("Proposed = %v, want %v", actions[0].Proposed, want)
	}
	if !g.Velocity.Approx(V2(-2, 0), 1e-12) {
		t.Errorf("Velocity = %v, want (-2, 0)", g.Velocity)
	}

	// moves are measured from the drag start, not the last sample
	g, actions = move(ctx, g, PointerEvent{Client: V2(121, 171), Time: 24 * time.Millisecond})
	if want := (Rect{-1, -1, 7, 7}); actions[0].Proposed != want {
		t.Errorf("Proposed = %v, want %v", actions[0].Proposed, want)
	}
	// 25px back over 8ms, normalised to a 16ms tick
	if !g.Velocity.Approx(V2(2, -2), 1e-12) {
		t.Errorf("Velocity = %v, want (2, -2)", g.Velocity)
	}

	up, actions := g.PointerUp(PointerEvent{Time: 30 * time.Millisecond})
	if up.Kind != GestureIdle {
		t.Errorf("Kind after up = %v, want idle", up.Kind)
	}
	if len(actions) != 1 || actions[0].Kind != ActionRelease {
		t.Fatalf("actions = %+v, want one release", actions)
	}
	if !actions[0].Velocity.Approx(V2(2, -2), 1e-12) {
		t.Errorf("release velocity = %v", actions[0].Velocity)
	}

	_, actions = g.PointerUp(PointerEvent{Time: time.Second})
	if !actions[0].Velocity.IsZero() {
		t.Errorf("stale release velocity = %v, want zero", actions[0].Velocity)
	}
}

func TestGestureScrollBarDrag(t *testing.T) {
	ctx := gestureCtx(Rect{0, 0, 8, 8})
	g, actions := down(ctx, Gesture{}, PointerEvent{Client: V2(60, 212)})
	if g.Kind != GestureScrollBarDragging || g.Axis != AxisX {
		t.Fatalf("gesture = %v axis %v, want horizontal scrollbar drag", g.Kind, g.Axis)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %+v, want none", actions)
	}

	// half the 174px track is half the grid
	g, actions = move(ctx, g, PointerEvent{Client: V2(147, 100)})
	if len(actions) != 1 || actions[0].Kind != ActionScrollTo {
		t.Fatalf("actions = %+v, want one scroll-to", actions)
	}
	p := actions[0].Proposed
	if math.Abs(p.Left-8) > 1e-9 || math.Abs(p.Right-16) > 1e-9 || p.Top != 0 || p.Bottom != 8 {
		t.Errorf("Proposed = %v, want {8 0 16 8}", p)
	}

	_, actions = g.PointerUp(PointerEvent{})
	if !actions[0].Velocity.IsZero() {
		t.Errorf("scrollbar release velocity = %v, want zero", actions[0].Velocity)
	}
}

func TestGestureTrackClickPages(t *testing.T) {
	tests := []struct {
		name   string
		vp     Rect
		client Vec2
		axis   Axis
		dir    int
	}{
		{"horizontal higher", Rect{0, 0, 8, 8}, V2(150, 212), AxisX, 1},
		{"horizontal lower", Rect{8, 8, 16, 16}, V2(50, 212), AxisX, -1},
		{"vertical higher", Rect{0, 0, 8, 8}, V2(212, 160), AxisY, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, actions := down(gestureCtx(tt.vp), Gesture{}, PointerEvent{Client: tt.client})
			if g.Kind != GestureIdle {
				t.Errorf("Kind = %v, want idle", g.Kind)
			}
			if len(actions) != 1 || actions[0].Kind != ActionPageJump {
				t.Fatalf("actions = %+v, want one page jump", actions)
			}
			if actions[0].Axis != tt.axis || actions[0].Direction != tt.dir {
				t.Errorf("page jump axis %v dir %d, want %v %d", actions[0].Axis, actions[0].Direction, tt.axis, tt.dir)
			}
		})
	}
}

func TestGestureHeaderRangeSelect(t *testing.T) {
	ctx := gestureCtx(Rect{0, 0, 8, 8})
	g, actions := down(ctx, Gesture{}, PointerEvent{Client: V2(96, 10)})
	if g.Kind != GestureHeaderRangeSelecting {
		t.Fatalf("Kind = %v, want header-range-selecting", g.Kind)
	}
	if len(actions) != 1 || actions[0].Target != (CellRef{3, HeaderIndex}) {
		t.Fatalf("actions = %+v, want select of column 3", actions)
	}

	g, actions = move(ctx, g, PointerEvent{Client: V2(146, 10)})
	if len(actions) != 2 || actions[0].Kind != ActionExtendSelect || actions[1].Kind != ActionHover {
		t.Fatalf("actions = %+v, want extend then hover", actions)
	}
	if actions[0].Target != (CellRef{5, HeaderIndex}) {
		t.Errorf("extend target = %v, want column 5", actions[0].Target)
	}

	_, actions = move(ctx, g, PointerEvent{Client: V2(148, 12)})
	if len(actions) != 1 || actions[0].Kind != ActionHover {
		t.Errorf("actions = %+v, want hover only on the same column", actions)
	}
}

func TestGestureIdleHover(t *testing.T) {
	ctx := gestureCtx(Rect{0, 0, 8, 8})
	tests := []struct {
		name   string
		client Vec2
		focus  CellRef
		state  ScrollBarState
	}{
		{"cell", V2(96, 146), CellRef{3, 5}, ScrollBarNotFocused},
		{"row header", V2(10, 96), CellRef{NoFocus, 3}, ScrollBarNotFocused},
		{"scrollbar", V2(60, 212), NoCell, ScrollBarHorizontalFocused},
		{"outside", V2(-5, 40), NoCell, ScrollBarOutOfFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, actions := move(ctx, Gesture{}, PointerEvent{Client: tt.client})
			if g.Active() {
				t.Error("hover started a gesture")
			}
			if len(actions) != 1 || actions[0].Kind != ActionHover {
				t.Fatalf("actions = %+v, want one hover", actions)
			}
			if actions[0].Target != tt.focus || actions[0].ScrollBar != tt.state {
				t.Errorf("hover = %v %v, want %v %v", actions[0].Target, actions[0].ScrollBar, tt.focus, tt.state)
			}
		})
	}
}

func TestGestureDownIgnored(t *testing.T) {
	ctx := gestureCtx(Rect{0, 0, 8, 8})
	for _, c := range []Vec2{V2(-1, -1), V2(206, 206)} {
		g, actions := down(ctx, Gesture{}, PointerEvent{Client: c})
		if g.Active() || len(actions) != 0 {
			t.Errorf("down at %v = %v %+v, want no gesture", c, g.Kind, actions)
		}
	}
}
