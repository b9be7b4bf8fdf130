package gridview

import (
	"errors"
	"fmt"
	"sync"
)

// SourceKind tags a DataSource variant.
type SourceKind int

// Source kinds.
const (
	SourceStatic SourceKind = iota
	SourceFunc
)

// String returns the kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceStatic:
		return "static"
	case SourceFunc:
		return "func"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// DataSource supplies the cell values of a grid. The engine treats values as
// opaque; colouring them is the shading stage's job.
type DataSource interface {
	// Kind identifies the variant.
	Kind() SourceKind

	// UpdateGridSize reallocates the value buffer for a new grid size.
	UpdateGridSize(size GridSize) error

	// SetParameters passes variant-specific tuning values.
	SetParameters(params map[string]float64) error

	// Step advances the source by one generation. It reports whether the
	// buffer changed.
	Step() (bool, error)

	// Buffer returns the current values, row-major, columns*rows long. The
	// slice is owned by the source and valid until the next Step or
	// UpdateGridSize.
	Buffer() []float32
}

// StaticSource holds values that change only by Set.
type StaticSource struct {
	mu     sync.Mutex
	size   GridSize
	values []float32
	dirty  bool
}

// NewStaticSource creates a zero-filled source for size.
func NewStaticSource(size GridSize) (*StaticSource, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	return &StaticSource{size: size, values: make([]float32, size.Cells())}, nil
}

// Kind returns SourceStatic.
func (s *StaticSource) Kind() SourceKind { return SourceStatic }

// UpdateGridSize replaces the buffer with a zero-filled one.
func (s *StaticSource) UpdateGridSize(size GridSize) error {
	if err := size.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
	s.values = make([]float32, size.Cells())
	s.dirty = true
	return nil
}

// SetParameters accepts no parameters.
func (s *StaticSource) SetParameters(params map[string]float64) error {
	if len(params) != 0 {
		return fmt.Errorf("gridview: static source takes no parameters, got %d", len(params))
	}
	return nil
}

// Set replaces all values.
func (s *StaticSource) Set(values []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(values) != s.size.Cells() {
		return fmt.Errorf("%w: got %d, want %d", ErrDataLength, len(values), s.size.Cells())
	}
	copy(s.values, values)
	s.dirty = true
	return nil
}

// Step reports whether Set or UpdateGridSize ran since the last Step.
func (s *StaticSource) Step() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.dirty
	s.dirty = false
	return changed, nil
}

// Buffer returns the values.
func (s *StaticSource) Buffer() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// CellFunc computes the next value of a cell from the previous generation.
// prev is the whole previous buffer; params are the current parameters.
type CellFunc func(column, row int, size GridSize, prev []float32, params map[string]float64) float32

// FuncSource computes every generation from a CellFunc, double-buffered.
type FuncSource struct {
	mu     sync.Mutex
	size   GridSize
	fn     CellFunc
	params map[string]float64
	front  []float32
	back   []float32
	gen    int
}

// NewFuncSource creates a source for size driven by fn. The initial buffer
// is zero-filled.
func NewFuncSource(size GridSize, fn CellFunc) (*FuncSource, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.New("gridview: nil cell func")
	}
	return &FuncSource{
		size:   size,
		fn:     fn,
		params: map[string]float64{},
		front:  make([]float32, size.Cells()),
		back:   make([]float32, size.Cells()),
	}, nil
}

// Kind returns SourceFunc.
func (s *FuncSource) Kind() SourceKind { return SourceFunc }

// UpdateGridSize reallocates both buffers and restarts at generation 0.
func (s *FuncSource) UpdateGridSize(size GridSize) error {
	if err := size.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
	s.front = make([]float32, size.Cells())
	s.back = make([]float32, size.Cells())
	s.gen = 0
	return nil
}

// SetParameters merges params into the current parameters.
func (s *FuncSource) SetParameters(params map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range params {
		s.params[k] = v
	}
	return nil
}

// Generation returns the number of completed steps.
func (s *FuncSource) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Step computes the next generation into the back buffer and swaps.
func (s *FuncSource) Step() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := s.size.Columns
	for row := range s.size.Rows {
		for col := range cols {
			s.back[row*cols+col] = s.fn(col, row, s.size, s.front, s.params)
		}
	}
	s.front, s.back = s.back, s.front
	s.gen++
	return true, nil
}

// Buffer returns the current generation.
func (s *FuncSource) Buffer() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front
}
