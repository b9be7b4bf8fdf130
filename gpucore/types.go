package gpucore

import (
	"encoding/binary"
	"math"
)

// FrameUniforms is the floating-point uniform block.
// Must match FrameUniforms in grid.wgsl.
type FrameUniforms struct {
	GridSize     [2]float32 // columns, rows
	CanvasSize   [2]float32 // pixels
	HeaderOffset [2]float32 // row header width, column header height (pixels)
	Overscroll   [2]float32 // pixels
	Viewport     [4]float32 // left, top, right, bottom (cells)
	ScrollBar    [4]float32 // radius, margin, cell margin, padding
}

// FrameUniformsSize is the byte size of FrameUniforms.
const FrameUniformsSize = 64

// Bytes encodes the block in field order, little endian.
func (u *FrameUniforms) Bytes() []byte {
	buf := make([]byte, FrameUniformsSize)
	off := 0
	put := func(vs ...float32) {
		for _, v := range vs {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	put(u.GridSize[:]...)
	put(u.CanvasSize[:]...)
	put(u.HeaderOffset[:]...)
	put(u.Overscroll[:]...)
	put(u.Viewport[:]...)
	put(u.ScrollBar[:]...)
	return buf
}

// IndexUniforms is the integer uniform block.
// Must match IndexUniforms in grid.wgsl.
type IndexUniforms struct {
	GridSize       [2]uint32
	CellsToShow    [2]uint32
	ScrollBarState uint32
	ViewportIndex  uint32
	Detail         uint32
	NumViewports   uint32
}

// IndexUniformsSize is the byte size of IndexUniforms.
const IndexUniformsSize = 32

// Bytes encodes the block in field order, little endian.
func (u *IndexUniforms) Bytes() []byte {
	buf := make([]byte, IndexUniformsSize)
	vals := [...]uint32{
		u.GridSize[0], u.GridSize[1],
		u.CellsToShow[0], u.CellsToShow[1],
		u.ScrollBarState, u.ViewportIndex,
		u.Detail, u.NumViewports,
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// DrawIndirectParameters is the per-layer draw record read at submission.
// Layout matches the WebGPU indirect draw arguments.
type DrawIndirectParameters struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// DrawIndirectSize is the byte size of one DrawIndirectParameters record.
const DrawIndirectSize = 16

// Bytes encodes the record little endian.
func (p DrawIndirectParameters) Bytes() []byte {
	buf := make([]byte, DrawIndirectSize)
	binary.LittleEndian.PutUint32(buf[0:], p.VertexCount)
	binary.LittleEndian.PutUint32(buf[4:], p.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:], p.FirstVertex)
	binary.LittleEndian.PutUint32(buf[12:], p.FirstInstance)
	return buf
}

// PackFloat32s encodes values little endian.
func PackFloat32s(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// PackUint32s encodes words little endian.
func PackUint32s(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// PackRects encodes rectangles as consecutive vec4<f32>.
func PackRects(rects [][4]float32) []byte {
	buf := make([]byte, len(rects)*16)
	for i, r := range rects {
		for j, v := range r {
			binary.LittleEndian.PutUint32(buf[i*16+j*4:], math.Float32bits(v))
		}
	}
	return buf
}

// FocusAxisColumn and FocusAxisRow are the bits of a focus storage word.
// Word i carries FocusAxisColumn when column i is focused and FocusAxisRow
// when row i is focused.
const (
	FocusAxisColumn uint32 = 1 << 0
	FocusAxisRow    uint32 = 1 << 1
)

// EncodeFocus builds the per-axis focus array of length max(columns, rows).
// A negative index means no focus on that axis.
func EncodeFocus(columns, rows, focusColumn, focusRow int) []uint32 {
	n := max(columns, rows)
	out := make([]uint32, n)
	if focusColumn >= 0 && focusColumn < columns {
		out[focusColumn] |= FocusAxisColumn
	}
	if focusRow >= 0 && focusRow < rows {
		out[focusRow] |= FocusAxisRow
	}
	return out
}
