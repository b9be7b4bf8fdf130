package gridview

import (
	"errors"
	"fmt"
	"sync"
)

// Group is the state shared by viewports that show the same grid: values,
// selection, focus and the viewport rectangle array. It is reference
// counted by its members; the last member to leave releases it.
//
// Every mutation writes the shared arrays first and then replays the change
// on each member, so no member renders a partially updated array.
type Group struct {
	mu sync.Mutex

	size      GridSize
	capacity  int
	data      []float32
	selection *Selection
	anchor    CellRef
	focus     CellRef
	viewports [][4]float32
	members   []*Grid
	refs      int
	released  bool

	// callbacks queued under mu, run after it is released
	post []func()
}

// NewGroup creates shared state for up to capacity viewports of a grid.
func NewGroup(size GridSize, capacity int) (*Group, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrViewportIndex, capacity)
	}
	return &Group{
		size:      size,
		capacity:  capacity,
		data:      make([]float32, size.Cells()),
		selection: NewSelection(size),
		anchor:    NoCell,
		focus:     NoCell,
		viewports: make([][4]float32, capacity),
		members:   make([]*Grid, capacity),
	}, nil
}

// Size returns the grid size.
func (gr *Group) Size() GridSize {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.size
}

// Capacity returns the number of viewport slots.
func (gr *Group) Capacity() int { return gr.capacity }

// Len returns the number of joined viewports.
func (gr *Group) Len() int {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.refs
}

// Released reports whether the last member has left.
func (gr *Group) Released() bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.released
}

// Viewports returns a copy of the shared viewport array.
func (gr *Group) Viewports() [][4]float32 {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return append([][4]float32(nil), gr.viewports...)
}

// Values returns a copy of the cell values.
func (gr *Group) Values() []float32 {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return append([]float32(nil), gr.data...)
}

// Focus returns the focused cell.
func (gr *Group) Focus() CellRef {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.focus
}

// Anchor returns the selection anchor.
func (gr *Group) Anchor() CellRef {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.anchor
}

// run executes fn under the group lock, then the callbacks it queued.
func (gr *Group) run(fn func() error) error {
	gr.mu.Lock()
	err := fn()
	post := gr.post
	gr.post = nil
	gr.mu.Unlock()
	for _, f := range post {
		f()
	}
	return err
}

func (gr *Group) queue(f func()) { gr.post = append(gr.post, f) }

func (gr *Group) joinLocked(g *Grid) (int, error) {
	if gr.released {
		return 0, ErrClosed
	}
	for i, m := range gr.members {
		if m == nil {
			gr.members[i] = g
			gr.refs++
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: group full (%d)", ErrViewportIndex, gr.capacity)
}

func (gr *Group) leaveLocked(index int) {
	if index < 0 || index >= len(gr.members) || gr.members[index] == nil {
		return
	}
	gr.members[index] = nil
	gr.viewports[index] = [4]float32{}
	gr.refs--
	if gr.refs > 0 {
		if err := gr.broadcastViewportLocked(index); err != nil {
			Logger().Warn("gridview: viewport broadcast on leave failed", "index", index, "err", err)
		}
		return
	}
	gr.released = true
	gr.data = nil
	gr.selection = nil
	gr.viewports = nil
	Logger().Debug("gridview: group released", "columns", gr.size.Columns, "rows", gr.size.Rows)
}

func (gr *Group) checkSource(source int) error {
	if gr.released {
		return ErrClosed
	}
	if source < 0 || source >= gr.capacity {
		return fmt.Errorf("%w: %d", ErrViewportIndex, source)
	}
	return nil
}

// each calls fn for every member, returning the source member's error and
// logging the rest.
func (gr *Group) each(source int, fn func(*Grid) error) error {
	var srcErr error
	for i, m := range gr.members {
		if m == nil {
			continue
		}
		err := fn(m)
		if i == source {
			srcErr = err
		} else if err != nil && !errors.Is(err, ErrNotReady) {
			Logger().Warn("gridview: sibling refresh failed", "index", i, "err", err)
		}
	}
	return srcErr
}

func (gr *Group) broadcastDataLocked(source int) error {
	return gr.each(source, func(m *Grid) error { return m.refreshDataLocked(source) })
}

func (gr *Group) broadcastFocusLocked(source int) error {
	c, r := gr.focus.Column, gr.focus.Row
	return gr.each(source, func(m *Grid) error { return m.refreshFocusedLocked(source, c, r) })
}

func (gr *Group) broadcastSelectedLocked(source int, target CellRef, mods Modifiers) error {
	return gr.each(source, func(m *Grid) error {
		return m.refreshSelectedLocked(source, target.Column, target.Row, mods)
	})
}

func (gr *Group) broadcastViewportLocked(source int) error {
	return gr.each(source, func(m *Grid) error { return m.refreshViewportLocked(source) })
}

// SetData replaces the grid values and refreshes every member.
func (gr *Group) SetData(source int, values []float32) error {
	return gr.run(func() error {
		if err := gr.checkSource(source); err != nil {
			return err
		}
		return gr.setDataLocked(source, values)
	})
}

func (gr *Group) setDataLocked(source int, values []float32) error {
	if len(values) != gr.size.Cells() {
		return fmt.Errorf("%w: got %d, want %d", ErrDataLength, len(values), gr.size.Cells())
	}
	copy(gr.data, values)
	return gr.broadcastDataLocked(source)
}

// SetFocus moves the focus and refreshes every member.
func (gr *Group) SetFocus(source int, focus CellRef) error {
	return gr.run(func() error {
		if err := gr.checkSource(source); err != nil {
			return err
		}
		return gr.setFocusLocked(source, focus)
	})
}

func (gr *Group) setFocusLocked(source int, focus CellRef) error {
	if focus == gr.focus {
		return nil
	}
	gr.focus = focus
	return gr.broadcastFocusLocked(source)
}

// Select applies the click selection policy on target and refreshes every
// member.
func (gr *Group) Select(source int, target CellRef, mods Modifiers) error {
	return gr.run(func() error {
		if err := gr.checkSource(source); err != nil {
			return err
		}
		return gr.selectLocked(source, target, mods)
	})
}

func (gr *Group) selectLocked(source int, target CellRef, mods Modifiers) error {
	if !target.Valid(gr.size) {
		return nil
	}
	gr.anchor = gr.selection.Apply(gr.anchor, target, mods)
	return gr.broadcastSelectedLocked(source, target, mods)
}

// ClearSelection clears every selected cell and the anchor.
func (gr *Group) ClearSelection(source int) error {
	return gr.run(func() error {
		if err := gr.checkSource(source); err != nil {
			return err
		}
		gr.selection.Clear()
		gr.anchor = NoCell
		return gr.broadcastSelectedLocked(source, NoCell, 0)
	})
}

// resizeLocked reallocates every size-dependent array and reconfigures all
// members.
func (gr *Group) resizeLocked(source int, size GridSize) error {
	gr.size = size
	gr.data = make([]float32, size.Cells())
	gr.selection = NewSelection(size)
	gr.anchor = NoCell
	gr.focus = NoCell
	for i, m := range gr.members {
		if m == nil {
			continue
		}
		m.resetGridLocked(size)
		gr.viewports[i] = m.model.Rect.Float32s()
	}
	return gr.each(source, func(m *Grid) error {
		if m.backend == nil {
			return nil
		}
		return m.configureLocked()
	})
}
