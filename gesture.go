package gridview

import "time"

// GestureKind is the pointer interaction mode of a viewport.
type GestureKind int

// Gesture kinds.
const (
	GestureIdle GestureKind = iota
	GesturePanning
	GestureScrollBarDragging
	GestureHeaderRangeSelecting
)

// String returns the gesture name.
func (k GestureKind) String() string {
	switch k {
	case GestureIdle:
		return "idle"
	case GesturePanning:
		return "panning"
	case GestureScrollBarDragging:
		return "scrollbar-dragging"
	case GestureHeaderRangeSelecting:
		return "header-range-selecting"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer sample in client pixels.
type PointerEvent struct {
	Client    Vec2
	Modifiers Modifiers

	// Time is a monotonic timestamp used to normalise release velocity.
	// Zero disables normalisation.
	Time time.Duration
}

// GestureContext is the viewport state a transition reads.
type GestureContext struct {
	Grid         GridSize
	Frame        Frame
	ScrollBar    ScrollBarGeometry
	TickInterval time.Duration
}

// Gesture is the current gesture of a viewport: one mutable value replaced
// by the pure transition methods below.
type Gesture struct {
	Kind GestureKind

	StartPointer  Vec2
	StartRect     Rect
	StartCellSize Vec2

	// Axis and TrackScale (cells per pixel) apply to scrollbar drags.
	Axis       Axis
	TrackScale float64

	LastPointer Vec2
	LastTime    time.Duration
	LastTarget  CellRef

	// Velocity is the latest instantaneous pan speed in cells per tick.
	Velocity Vec2
}

// Active reports whether a drag is in progress.
func (g Gesture) Active() bool { return g.Kind != GestureIdle }

// ActionKind names a side effect requested by a transition.
type ActionKind int

// Actions.
const (
	// ActionSelect runs the click selection policy on Target.
	ActionSelect ActionKind = iota + 1
	// ActionExtendSelect shift-extends the selection to Target.
	ActionExtendSelect
	// ActionPageJump moves the viewport one extent along Axis by Direction.
	ActionPageJump
	// ActionPan regulates Proposed with overscroll allowed.
	ActionPan
	// ActionScrollTo regulates Proposed with overscroll suppressed.
	ActionScrollTo
	// ActionHover updates the focus to Target and the scrollbar state.
	ActionHover
	// ActionRelease clears focus and hands Velocity to the ticker.
	ActionRelease
)

// Action is a side effect for the grid to apply, in order.
type Action struct {
	Kind      ActionKind
	Target    CellRef
	Modifiers Modifiers
	Axis      Axis
	Direction int
	Proposed  Rect
	CellSize  Vec2
	Velocity  Vec2
	ScrollBar ScrollBarState
}

// releaseStale drops the release velocity when the pointer rested longer
// than this before being lifted.
const releaseStale = 100 * time.Millisecond

// PointerDown starts a gesture from a classified hit.
func (g Gesture) PointerDown(ctx GestureContext, ev PointerEvent, hit Hit) (Gesture, []Action) {
	if hit.Outside {
		return g, nil
	}
	next := Gesture{
		StartPointer:  ev.Client,
		StartRect:     ctx.Frame.Viewport,
		StartCellSize: ctx.Frame.CellSize(),
		LastPointer:   ev.Client,
		LastTime:      ev.Time,
		LastTarget:    hit.Cell(),
	}

	for _, axis := range [...]Axis{AxisX, AxisY} {
		v := hit.Column
		if axis == AxisY {
			v = hit.Row
		}
		switch v {
		case ScrollBarHandle:
			start, end, _, _, _ := ScrollBarTrack(axis, ctx.Grid, ctx.Frame, ctx.ScrollBar)
			next.Kind = GestureScrollBarDragging
			next.Axis = axis
			if end > start {
				next.TrackScale = float64(ctx.Grid.Len(axis)) / (end - start)
			}
			return next, nil
		case ScrollBarTrackLower:
			return g, []Action{{Kind: ActionPageJump, Axis: axis, Direction: -1}}
		case ScrollBarTrackHigher:
			return g, []Action{{Kind: ActionPageJump, Axis: axis, Direction: 1}}
		}
	}
	if IsScrollBarIndex(hit.Column) || IsScrollBarIndex(hit.Row) {
		return g, nil
	}

	target := hit.Cell()
	if target.IsHeader() {
		next.Kind = GestureHeaderRangeSelecting
		return next, []Action{{Kind: ActionSelect, Target: target, Modifiers: ev.Modifiers}}
	}
	next.Kind = GesturePanning
	if target.Column >= 0 && target.Row >= 0 {
		return next, []Action{{Kind: ActionSelect, Target: target, Modifiers: ev.Modifiers}}
	}
	return next, nil
}

// PointerMove advances the gesture. While idle it only reports hover state.
func (g Gesture) PointerMove(ctx GestureContext, ev PointerEvent, hit Hit) (Gesture, []Action) {
	switch g.Kind {
	case GesturePanning:
		delta := ev.Client.Sub(g.StartPointer)
		proposed := g.StartRect.Translate(delta.DivVec(g.StartCellSize).Neg())

		step := ev.Client.Sub(g.LastPointer).DivVec(g.StartCellSize).Neg()
		if dt := ev.Time - g.LastTime; dt > 0 && ev.Time > 0 && ctx.TickInterval > 0 {
			step = step.Mul(float64(ctx.TickInterval) / float64(dt))
		}
		g.Velocity = step
		g.LastPointer = ev.Client
		g.LastTime = ev.Time
		return g, []Action{{Kind: ActionPan, Proposed: proposed, CellSize: g.StartCellSize}}

	case GestureScrollBarDragging:
		along := ev.Client.Axis(g.Axis) - g.StartPointer.Axis(g.Axis)
		shift := V2(0, 0).WithAxis(g.Axis, along*g.TrackScale)
		g.LastPointer = ev.Client
		g.LastTime = ev.Time
		return g, []Action{{Kind: ActionScrollTo, Proposed: g.StartRect.Translate(shift), CellSize: g.StartCellSize}}

	case GestureHeaderRangeSelecting:
		g.LastPointer = ev.Client
		g.LastTime = ev.Time
		target := hit.Cell()
		if !target.IsHeader() || target == g.LastTarget || !target.Valid(ctx.Grid) {
			return g, []Action{{Kind: ActionHover, Target: hit.Focus(), ScrollBar: hit.ScrollBarState()}}
		}
		g.LastTarget = target
		return g, []Action{
			{Kind: ActionExtendSelect, Target: target, Modifiers: ModShift},
			{Kind: ActionHover, Target: hit.Focus(), ScrollBar: hit.ScrollBarState()},
		}

	default:
		return g, []Action{{Kind: ActionHover, Target: hit.Focus(), ScrollBar: hit.ScrollBarState()}}
	}
}

// PointerUp ends the gesture. A pan released while still moving hands its
// velocity to the ticker.
func (g Gesture) PointerUp(ev PointerEvent) (Gesture, []Action) {
	var v Vec2
	if g.Kind == GesturePanning {
		v = g.Velocity
		if ev.Time > 0 && g.LastTime > 0 && ev.Time-g.LastTime > releaseStale {
			v = Vec2{}
		}
	}
	return Gesture{}, []Action{{Kind: ActionRelease, Velocity: v}}
}
