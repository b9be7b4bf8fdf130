package gridview

import "math/bits"

// Modifiers are the keyboard modifiers held during a click.
type Modifiers uint8

// Modifier flags. ModCtrl and ModMeta select the same toggle behavior so
// Ctrl on Linux/Windows and Cmd on macOS match.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModMeta
)

// Toggle reports whether Ctrl or Meta is held.
func (m Modifiers) Toggle() bool { return m&(ModCtrl|ModMeta) != 0 }

// Shift reports whether Shift is held.
func (m Modifiers) Shift() bool { return m&ModShift != 0 }

// CellRef addresses a cell, a whole row or column, or the whole grid.
// A Column of HeaderIndex with a valid Row means the row header of Row, and
// the reverse for columns; both HeaderIndex means the header corner.
type CellRef struct {
	Column, Row int
}

// NoCell is the zero anchor: nothing has been clicked yet.
var NoCell = CellRef{Column: NoFocus, Row: NoFocus}

// Valid reports whether the reference addresses something selectable.
func (c CellRef) Valid(grid GridSize) bool {
	colOK := c.Column == HeaderIndex || (c.Column >= 0 && c.Column < grid.Columns)
	rowOK := c.Row == HeaderIndex || (c.Row >= 0 && c.Row < grid.Rows)
	return colOK && rowOK
}

// IsHeader reports whether the reference names a row, a column or the corner.
func (c CellRef) IsHeader() bool {
	return c.Column == HeaderIndex || c.Row == HeaderIndex
}

// cellRange is an inclusive range of cells.
type cellRange struct {
	c0, r0, c1, r1 int
}

func (c CellRef) cells(grid GridSize) cellRange {
	r := cellRange{c0: c.Column, r0: c.Row, c1: c.Column, r1: c.Row}
	if c.Column == HeaderIndex {
		r.c0, r.c1 = 0, grid.Columns-1
	}
	if c.Row == HeaderIndex {
		r.r0, r.r1 = 0, grid.Rows-1
	}
	return r
}

func (r cellRange) union(o cellRange) cellRange {
	return cellRange{
		c0: min(r.c0, o.c0), r0: min(r.r0, o.r0),
		c1: max(r.c1, o.c1), r1: max(r.r1, o.r1),
	}
}

// Selection is one bit per cell, 32 cells per word, bit index row*columns+column.
type Selection struct {
	grid  GridSize
	words []uint32
}

// NewSelection allocates an empty selection for grid.
func NewSelection(grid GridSize) *Selection {
	return &Selection{grid: grid, words: make([]uint32, (grid.Cells()+31)/32)}
}

// Grid returns the grid size the bitmask was allocated for.
func (s *Selection) Grid() GridSize { return s.grid }

// Words returns the backing words. The slice is shared, not copied.
func (s *Selection) Words() []uint32 { return s.words }

// Get reports whether the cell is selected.
func (s *Selection) Get(column, row int) bool {
	if !s.grid.Contains(column, row) {
		return false
	}
	i := row*s.grid.Columns + column
	return s.words[i>>5]&(1<<(i&31)) != 0
}

// Set selects or clears one cell.
func (s *Selection) Set(column, row int, on bool) {
	if !s.grid.Contains(column, row) {
		return
	}
	i := row*s.grid.Columns + column
	if on {
		s.words[i>>5] |= 1 << (i & 31)
	} else {
		s.words[i>>5] &^= 1 << (i & 31)
	}
}

// Toggle flips one cell.
func (s *Selection) Toggle(column, row int) {
	s.Set(column, row, !s.Get(column, row))
}

// Clear deselects every cell.
func (s *Selection) Clear() {
	clear(s.words)
}

// Count returns the number of selected cells.
func (s *Selection) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount32(w)
	}
	return n
}

func (s *Selection) fill(r cellRange, on bool) {
	for row := max(r.r0, 0); row <= min(r.r1, s.grid.Rows-1); row++ {
		for col := max(r.c0, 0); col <= min(r.c1, s.grid.Columns-1); col++ {
			s.Set(col, row, on)
		}
	}
}

func (s *Selection) allSet(r cellRange) bool {
	for row := max(r.r0, 0); row <= min(r.r1, s.grid.Rows-1); row++ {
		for col := max(r.c0, 0); col <= min(r.c1, s.grid.Columns-1); col++ {
			if !s.Get(col, row) {
				return false
			}
		}
	}
	return true
}

// Apply runs the click selection policy and returns the next anchor.
//
//   - no modifier: clear, then select the target (a header selects its
//     whole row or column);
//   - Shift: fill the range spanned by anchor and target, anchor kept;
//   - Ctrl/Cmd: a header range is cleared when fully selected and selected
//     otherwise; a single cell is flipped.
func (s *Selection) Apply(anchor, target CellRef, mods Modifiers) CellRef {
	if !target.Valid(s.grid) {
		return anchor
	}
	switch {
	case mods.Shift() && anchor.Valid(s.grid):
		s.fill(anchor.cells(s.grid).union(target.cells(s.grid)), true)
		return anchor
	case mods.Toggle():
		r := target.cells(s.grid)
		if target.IsHeader() {
			s.fill(r, !s.allSet(r))
		} else {
			s.Toggle(target.Column, target.Row)
		}
		return target
	default:
		s.Clear()
		s.fill(target.cells(s.grid), true)
		return target
	}
}
