package gridview

import (
	"fmt"
	"math"
)

// GridSize is the number of columns and rows of a grid. It is immutable for
// the lifetime of a grid's buffers.
type GridSize struct {
	Columns, Rows int
}

// Validate reports ErrInvalidGridSize for non-positive dimensions.
func (s GridSize) Validate() error {
	if s.Columns <= 0 || s.Rows <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGridSize, s.Columns, s.Rows)
	}
	return nil
}

// Cells returns columns*rows.
func (s GridSize) Cells() int { return s.Columns * s.Rows }

// Vec returns the size as a vector in cell units.
func (s GridSize) Vec() Vec2 { return V2(float64(s.Columns), float64(s.Rows)) }

// Len returns the number of cells along an axis.
func (s GridSize) Len(axis Axis) int {
	if axis == AxisX {
		return s.Columns
	}
	return s.Rows
}

// Contains reports whether (column, row) is a cell of the grid.
func (s GridSize) Contains(column, row int) bool {
	return column >= 0 && column < s.Columns && row >= 0 && row < s.Rows
}

// Rect is a viewport rectangle in cell units.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// FullRect returns the rectangle covering the whole grid.
func FullRect(s GridSize) Rect {
	return Rect{Left: 0, Top: 0, Right: float64(s.Columns), Bottom: float64(s.Rows)}
}

// TopLeft returns (Left, Top).
func (r Rect) TopLeft() Vec2 { return V2(r.Left, r.Top) }

// Size returns (Width, Height).
func (r Rect) Size() Vec2 { return V2(r.Width(), r.Height()) }

// Width returns Right-Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the center point.
func (r Rect) Center() Vec2 { return V2((r.Left+r.Right)/2, (r.Top+r.Bottom)/2) }

// Translate returns the rectangle moved by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{Left: r.Left + d.X, Top: r.Top + d.Y, Right: r.Right + d.X, Bottom: r.Bottom + d.Y}
}

// ScaleAbout scales the rectangle by s around the fixed point p.
func (r Rect) ScaleAbout(p Vec2, s float64) Rect {
	return Rect{
		Left:   p.X + (r.Left-p.X)*s,
		Top:    p.Y + (r.Top-p.Y)*s,
		Right:  p.X + (r.Right-p.X)*s,
		Bottom: p.Y + (r.Bottom-p.Y)*s,
	}
}

// Span returns the low and high edges along an axis.
func (r Rect) Span(axis Axis) (lo, hi float64) {
	if axis == AxisX {
		return r.Left, r.Right
	}
	return r.Top, r.Bottom
}

// WithSpan returns a copy with the edges along axis replaced.
func (r Rect) WithSpan(axis Axis, lo, hi float64) Rect {
	if axis == AxisX {
		r.Left, r.Right = lo, hi
	} else {
		r.Top, r.Bottom = lo, hi
	}
	return r
}

// Valid reports Left ≤ Right and Top ≤ Bottom with finite edges.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.Left, r.Top, r.Right, r.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Left <= r.Right && r.Top <= r.Bottom
}

// Float32s returns the rectangle as a storage vec4.
func (r Rect) Float32s() [4]float32 {
	return [4]float32{float32(r.Left), float32(r.Top), float32(r.Right), float32(r.Bottom)}
}

// NumCellsToShow returns the number of columns and rows the instanced draw
// must cover: min(ceil(right)−floor(left), columns) and the same for rows.
func NumCellsToShow(grid GridSize, r Rect) (columns, rows int) {
	span := func(lo, hi float64, limit int) int {
		n := int(math.Ceil(hi) - math.Floor(lo))
		return max(0, min(n, limit))
	}
	return span(r.Left, r.Right, grid.Columns), span(r.Top, r.Bottom, grid.Rows)
}

// RegulateOptions tunes Regulate.
type RegulateOptions struct {
	// AllowOverscroll routes travel past a grid edge into the overscroll.
	// It is false while a scrollbar handle is held.
	AllowOverscroll bool

	// Friction multiplies the overscroll of an axis that stays in bounds.
	Friction float64

	// Epsilon snaps overscroll magnitudes below it to zero.
	Epsilon float64
}

// Regulation is the result of Regulate.
type Regulation struct {
	Rect       Rect
	Overscroll Vec2

	// Underflow and Overflow report, per axis, whether the proposed
	// rectangle crossed the low or high grid edge.
	Underflow, Overflow [2]bool

	// Fit reports, per axis, that the proposal was wider than the grid and
	// the axis was clamped to the full extent.
	Fit [2]bool
}

// Crossed reports whether the proposal crossed an edge on axis.
func (g Regulation) Crossed(axis Axis) bool {
	return (g.Underflow[axis] || g.Overflow[axis]) && !g.Fit[axis]
}

// Regulate turns a freely computed candidate rectangle into a valid viewport
// and the matching overscroll.
//
// If the proposal is larger than the grid on either axis, both axes are
// scaled about the proposal's center by the same factor until the tighter
// one covers its whole extent, so cells keep their aspect. That axis is
// clamped to [0, limit] exactly; the other is recentered and slid back
// inside the grid. Overscroll decays on both axes.
//
// Otherwise each axis is handled by the same rule:
//
//   - one edge past a bound: pin that edge to the bound, keep the size and
//     turn the excess travel into overscroll pixels (excess × cell size),
//     unless opts.AllowOverscroll is false;
//   - in bounds: apply unchanged and decay overscroll.
//
// Regulate panics if its result is inverted: that is a logic defect, not an
// input condition.
func Regulate(grid GridSize, proposed Rect, cellSize, overscroll Vec2, opts RegulateOptions) Regulation {
	var out Regulation
	for _, axis := range [...]Axis{AxisX, AxisY} {
		lo, hi := proposed.Span(axis)
		limit := float64(grid.Len(axis))
		out.Underflow[axis] = lo < 0
		out.Overflow[axis] = hi > limit
	}
	if k := fitScale(grid, proposed); k < 1 {
		return fit(grid, proposed, overscroll, k, opts, out)
	}

	out.Rect = proposed
	for _, axis := range [...]Axis{AxisX, AxisY} {
		lo, hi := proposed.Span(axis)
		limit := float64(grid.Len(axis))
		over := overscroll.Axis(axis)
		size := hi - lo

		switch {
		case lo < 0:
			if opts.AllowOverscroll {
				over = lo * cellSize.Axis(axis)
			} else {
				over = decay(over, opts)
			}
			lo, hi = 0, size
		case hi > limit:
			if opts.AllowOverscroll {
				over = (hi - limit) * cellSize.Axis(axis)
			} else {
				over = decay(over, opts)
			}
			lo, hi = limit-size, limit
		default:
			over = decay(over, opts)
		}
		out.Rect = out.Rect.WithSpan(axis, lo, hi)
		out.Overscroll = out.Overscroll.WithAxis(axis, over)
	}
	return checked(out, proposed)
}

// fitScale returns the factor that shrinks r to fit the grid on its tighter
// axis, or 1 when r already fits.
func fitScale(grid GridSize, r Rect) float64 {
	k := 1.0
	for _, axis := range [...]Axis{AxisX, AxisY} {
		lo, hi := r.Span(axis)
		if size := hi - lo; size > 0 {
			k = min(k, float64(grid.Len(axis))/size)
		}
	}
	return k
}

func fit(grid GridSize, proposed Rect, overscroll Vec2, k float64, opts RegulateOptions, out Regulation) Regulation {
	out.Rect = proposed
	for _, axis := range [...]Axis{AxisX, AxisY} {
		lo, hi := proposed.Span(axis)
		limit := float64(grid.Len(axis))
		size := hi - lo
		center := (lo + hi) / 2

		if size > 0 && limit/size <= k {
			size = limit
		} else {
			size = min(size*k, limit)
		}
		lo, hi = center-size/2, center+size/2
		switch {
		case size >= limit:
			lo, hi = 0, limit
			out.Fit[axis] = true
		case lo < 0:
			lo, hi = 0, size
		case hi > limit:
			lo, hi = limit-size, limit
		}
		out.Rect = out.Rect.WithSpan(axis, lo, hi)
		out.Overscroll = out.Overscroll.WithAxis(axis, decay(overscroll.Axis(axis), opts))
	}
	return checked(out, proposed)
}

func checked(out Regulation, proposed Rect) Regulation {
	if !out.Rect.Valid() {
		panic(fmt.Sprintf("gridview: regulate produced invalid viewport %+v from %+v", out.Rect, proposed))
	}
	return out
}

func decay(v float64, opts RegulateOptions) float64 {
	v *= opts.Friction
	if math.Abs(v) < opts.Epsilon {
		return 0
	}
	return v
}

// ZoomAt scales r by s around the world point anchor, so the point under the
// pointer stays fixed. s > 1 zooms out, s < 1 zooms in. Zooming out stops when
// the tighter axis covers its whole extent, which keeps cells' aspect; zooming
// in stops at minCells visible cells on the smaller axis.
func ZoomAt(grid GridSize, r Rect, anchor Vec2, s, minCells float64) Rect {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return r
	}
	w, h := r.Width(), r.Height()
	if s > 1 {
		limit := min(float64(grid.Columns)/w, float64(grid.Rows)/h)
		s = max(1, min(s, limit))
	} else if s < 1 && minCells > 0 {
		floor := minCells / min(w, h)
		s = min(1, max(s, floor))
	}
	return r.ScaleAbout(anchor, s)
}

// PageJump shifts r by one viewport extent along axis (direction −1 or +1)
// and clamps it to the grid without overscroll.
func PageJump(grid GridSize, r Rect, axis Axis, direction int) Rect {
	lo, hi := r.Span(axis)
	size := hi - lo
	limit := float64(grid.Len(axis))
	shift := size * float64(direction)
	lo, hi = lo+shift, hi+shift
	switch {
	case size >= limit:
		lo, hi = 0, limit
	case lo < 0:
		lo, hi = 0, size
	case hi > limit:
		lo, hi = limit-size, limit
	}
	return r.WithSpan(axis, lo, hi)
}

// Model owns one viewport's rectangle, overscroll and velocity.
type Model struct {
	Grid       GridSize
	Rect       Rect
	Overscroll Vec2
	Velocity   Vec2

	Friction float64 // overscroll friction per regulation
	Epsilon  float64 // overscroll snap threshold in pixels
}

// Regulate applies a candidate rectangle. Velocity on an axis that hit an
// edge is dropped so inertia does not keep pushing into the bound.
func (m *Model) Regulate(cellSize Vec2, proposed Rect, allowOverscroll bool) Regulation {
	g := Regulate(m.Grid, proposed, cellSize, m.Overscroll, RegulateOptions{
		AllowOverscroll: allowOverscroll,
		Friction:        m.Friction,
		Epsilon:         m.Epsilon,
	})
	m.Rect = g.Rect
	m.Overscroll = g.Overscroll
	for _, axis := range [...]Axis{AxisX, AxisY} {
		if g.Crossed(axis) || g.Fit[axis] {
			m.Velocity = m.Velocity.WithAxis(axis, 0)
		}
	}
	return g
}
