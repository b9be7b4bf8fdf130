package scenario

import (
	"math/rand/v2"

	"github.com/gogpu/gridview"
)

// NewSource builds the data source a scenario names.
func (sc *Scenario) NewSource() (gridview.DataSource, error) {
	size := sc.GridSize()
	switch sc.Source {
	case SourceLife:
		s, err := gridview.NewFuncSource(size, life)
		if err != nil {
			return nil, err
		}
		seed(s.Buffer(), sc.Seed, sc.Density, true)
		return s, nil
	default:
		s, err := gridview.NewStaticSource(size)
		if err != nil {
			return nil, err
		}
		values := make([]float32, size.Cells())
		switch sc.Source {
		case SourceGradient:
			gradient(values, size)
		case SourceRandom:
			seed(values, sc.Seed, sc.Density, false)
		}
		if err := s.Set(values); err != nil {
			return nil, err
		}
		return s, nil
	}
}

// GridSize returns the scenario grid size.
func (sc *Scenario) GridSize() gridview.GridSize {
	return gridview.GridSize{Columns: sc.Columns, Rows: sc.Rows}
}

// seed fills buf from a PCG stream. Binary sets a cell alive with
// probability density; otherwise values are uniform in [0, 1).
func seed(buf []float32, s uint64, density float64, binary bool) {
	r := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
	for i := range buf {
		if binary {
			if r.Float64() < density {
				buf[i] = 1
			} else {
				buf[i] = 0
			}
			continue
		}
		buf[i] = r.Float32()
	}
}

func gradient(buf []float32, size gridview.GridSize) {
	span := float32(size.Columns + size.Rows - 2)
	if span == 0 {
		return
	}
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Columns; col++ {
			buf[row*size.Columns+col] = float32(col+row) / span
		}
	}
}

// life is Conway's rule on a torus.
func life(col, row int, size gridview.GridSize, prev []float32, _ map[string]float64) float32 {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			c := (col + dx + size.Columns) % size.Columns
			r := (row + dy + size.Rows) % size.Rows
			if prev[r*size.Columns+c] != 0 {
				n++
			}
		}
	}
	alive := prev[row*size.Columns+col] != 0
	if n == 3 || (alive && n == 2) {
		return 1
	}
	return 0
}
