package gridview

import "math"

// Per-axis classification sentinels. Non-negative values are cell indices.
const (
	// NoFocus marks an axis with nothing under the pointer (outside the
	// grid, or no focus at all).
	NoFocus = -1

	// HeaderIndex marks the header band of an axis.
	HeaderIndex = -2

	// ScrollBarHandle marks the scrollbar handle of this axis.
	ScrollBarHandle = -3

	// ScrollBarTrackLower marks the track before the handle.
	ScrollBarTrackLower = -4

	// ScrollBarTrackHigher marks the track after the handle.
	ScrollBarTrackHigher = -5

	// ScrollBarOtherAxis marks an axis while the pointer is over the other
	// axis's scrollbar.
	ScrollBarOtherAxis = -6

	// ScrollBarCorner marks both axes where the two scrollbars meet.
	ScrollBarCorner = -7
)

// IsScrollBarIndex reports whether v is one of the scrollbar sentinels.
func IsScrollBarIndex(v int) bool {
	return v <= ScrollBarHandle && v >= ScrollBarCorner
}

// ScrollBarState is the scrollbar hover state of a viewport. It drives the
// cursor affordance and disables overscroll while a handle is held.
type ScrollBarState uint32

// Scrollbar states.
const (
	ScrollBarNotFocused ScrollBarState = iota
	ScrollBarHorizontalFocused
	ScrollBarVerticalFocused
	ScrollBarBoth
	ScrollBarOutOfFrame
)

// String returns the state name.
func (s ScrollBarState) String() string {
	switch s {
	case ScrollBarNotFocused:
		return "not-focused"
	case ScrollBarHorizontalFocused:
		return "horizontal"
	case ScrollBarVerticalFocused:
		return "vertical"
	case ScrollBarBoth:
		return "both"
	case ScrollBarOutOfFrame:
		return "out-of-frame"
	default:
		return "unknown"
	}
}

// ScrollBarGeometry places the scrollbars along the bottom and right canvas
// edges. Each bar is a capsule of the given radius, Margin pixels from the edge.
type ScrollBarGeometry struct {
	Radius float64
	Margin float64
}

// Hit is the classification of a pointer position.
type Hit struct {
	Column, Row int
	World       Vec2 // inverse-transformed grid position
	Outside     bool // pointer outside the canvas
}

// Cell returns the hit as a selection target.
func (h Hit) Cell() CellRef { return CellRef{Column: h.Column, Row: h.Row} }

// ScrollBarState derives the hover state from a hit.
func (h Hit) ScrollBarState() ScrollBarState {
	switch {
	case h.Outside:
		return ScrollBarOutOfFrame
	case h.Column == ScrollBarCorner:
		return ScrollBarBoth
	case IsScrollBarIndex(h.Column) && h.Column != ScrollBarOtherAxis:
		return ScrollBarHorizontalFocused
	case IsScrollBarIndex(h.Row) && h.Row != ScrollBarOtherAxis:
		return ScrollBarVerticalFocused
	default:
		return ScrollBarNotFocused
	}
}

// Focus returns the focused cell position of the hit: cell indices stay,
// everything else becomes NoFocus.
func (h Hit) Focus() CellRef {
	f := NoCell
	if h.Column >= 0 {
		f.Column = h.Column
	}
	if h.Row >= 0 {
		f.Row = h.Row
	}
	return f
}

// scrollTrack describes one scrollbar track in client pixels along its axis.
type scrollTrack struct {
	center             float64 // cross-axis center line
	start, end         float64 // track extent along the axis
	handleLo, handleHi float64
}

func trackFor(axis Axis, grid GridSize, f Frame, sb ScrollBarGeometry) scrollTrack {
	cross := f.Canvas.Axis(1-axis) - sb.Margin - sb.Radius
	start := f.Header.Axis(axis) + sb.Radius
	// stop short of the corner where the other bar runs
	end := f.Canvas.Axis(axis) - sb.Radius - (2*sb.Radius + sb.Margin)
	length := max(end-start, 0)
	lo, hi := f.Viewport.Span(axis)
	limit := float64(grid.Len(axis))
	return scrollTrack{
		center:   cross,
		start:    start,
		end:      end,
		handleLo: start + clamp01(lo/limit)*length,
		handleHi: start + clamp01(hi/limit)*length,
	}
}

// ScrollBarTrack returns the track extent and handle span of axis in client
// pixels along that axis, and the cross-axis center line.
func ScrollBarTrack(axis Axis, grid GridSize, f Frame, sb ScrollBarGeometry) (start, end, handleLo, handleHi, center float64) {
	t := trackFor(axis, grid, f, sb)
	return t.start, t.end, t.handleLo, t.handleHi, t.center
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// classify returns the scrollbar sentinel for the pointer along axis, or ok
// false when the pointer is not in that bar's band.
func (t scrollTrack) classify(along, across, radius float64) (int, bool) {
	if math.Abs(across-t.center) > radius || along < t.start-radius || along > t.end+radius {
		return 0, false
	}
	// distance to the handle capsule
	nearest := math.Max(t.handleLo, math.Min(t.handleHi, along))
	if math.Hypot(along-nearest, across-t.center) <= radius {
		return ScrollBarHandle, true
	}
	if along < t.handleLo {
		return ScrollBarTrackLower, true
	}
	return ScrollBarTrackHigher, true
}

// Classify maps a client position to a per-axis classification:
//
//  1. inverse-transform to a grid position;
//  2. inside a scrollbar band: the scrollbar sentinels;
//  3. inside the cell body: the floored cell index (NoFocus past the grid);
//  4. otherwise the header sentinel of that axis.
func Classify(grid GridSize, f Frame, sb ScrollBarGeometry, client Vec2) Hit {
	hit := Hit{Column: NoFocus, Row: NoFocus, World: f.ClientToWorld(client)}
	if client.X < 0 || client.Y < 0 || client.X >= f.Canvas.X || client.Y >= f.Canvas.Y {
		hit.Outside = true
		return hit
	}

	if sb.Radius > 0 {
		h := trackFor(AxisX, grid, f, sb)
		v := trackFor(AxisY, grid, f, sb)
		hx, inH := h.classify(client.X, client.Y, sb.Radius)
		vy, inV := v.classify(client.Y, client.X, sb.Radius)
		switch {
		case inH && inV:
			hit.Column, hit.Row = ScrollBarCorner, ScrollBarCorner
			return hit
		case inH:
			hit.Column, hit.Row = hx, ScrollBarOtherAxis
			return hit
		case inV:
			hit.Column, hit.Row = ScrollBarOtherAxis, vy
			return hit
		}
	}

	hit.Column = classifyAxis(client.X, f.Header.X, hit.World.X, grid.Columns)
	hit.Row = classifyAxis(client.Y, f.Header.Y, hit.World.Y, grid.Rows)
	return hit
}

func classifyAxis(client, header, world float64, limit int) int {
	if client < header {
		return HeaderIndex
	}
	i := int(math.Floor(world))
	if world < 0 || i >= limit {
		return NoFocus
	}
	return i
}
