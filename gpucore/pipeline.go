package gpucore

import "fmt"

// Layer identifies one visual layer of the grid. Each layer is drawn by a
// single instanced draw call replayed from its render bundle.
type Layer uint8

// Visual layers.
const (
	LayerColumnFocus Layer = iota
	LayerRowFocus
	LayerShadow
	LayerBody
	LayerColumnHeader
	LayerRowHeader
	LayerScrollBarTrack
	LayerScrollBarHandle

	// LayerCount is the number of layers.
	LayerCount = int(LayerScrollBarHandle) + 1
)

// LayerOrder is the submission order. Blending relies on it: overlays sit
// under the body, headers over it, the scrollbar handle last.
var LayerOrder = [LayerCount]Layer{
	LayerColumnFocus,
	LayerRowFocus,
	LayerShadow,
	LayerBody,
	LayerColumnHeader,
	LayerRowHeader,
	LayerScrollBarTrack,
	LayerScrollBarHandle,
}

var layerNames = [LayerCount]string{
	"column_focus",
	"row_focus",
	"shadow",
	"body",
	"column_header",
	"row_header",
	"scrollbar_track",
	"scrollbar_handle",
}

// String returns the layer name used in labels and entry points.
func (l Layer) String() string {
	if int(l) < LayerCount {
		return layerNames[l]
	}
	return fmt.Sprintf("Layer(%d)", l)
}

// VertexEntryPoint returns the shader vertex entry point of the layer.
func (l Layer) VertexEntryPoint() string { return "vs_" + l.String() }

// FragmentEntryPoint returns the shader fragment entry point of the layer.
func (l Layer) FragmentEntryPoint() string { return "fs_" + l.String() }

// GeometryDetail selects one of the two precompiled quad geometries of the
// body layer.
type GeometryDetail uint32

const (
	// GeometryMargined insets every cell quad by a pixel margin so gaps
	// between cells are visible. Used while cells are large on screen.
	GeometryMargined GeometryDetail = iota

	// GeometryBorderless draws full quads. Used below the detail threshold,
	// where margins would alias into seams.
	GeometryBorderless
)

// String returns the detail name.
func (d GeometryDetail) String() string {
	switch d {
	case GeometryMargined:
		return "margined"
	case GeometryBorderless:
		return "borderless"
	default:
		return fmt.Sprintf("GeometryDetail(%d)", uint32(d))
	}
}

// DefaultDetailThreshold is the pixels-per-cell size under which the body
// switches to borderless quads.
const DefaultDetailThreshold = 4.0

// DetailFor picks the geometry for the smaller of the two cell extents.
func DetailFor(cellWidth, cellHeight, threshold float64) GeometryDetail {
	if min(cellWidth, cellHeight) < threshold {
		return GeometryBorderless
	}
	return GeometryMargined
}

// VerticesPerQuad is the vertex count of one quad (two triangles).
const VerticesPerQuad = 6

// QuadVertexStride is the byte stride of one quad vertex.
// Layout per vertex:
//
//	corner (vec2<f32>) = 8 bytes (location 0), in [-1,1]²
//	margin (f32)       = 4 bytes (location 1), 1 when the quad is inset
//
// Total = 12 bytes per vertex.
const QuadVertexStride = 12

// QuadVertices holds both geometries back to back: the margined quad in
// vertices [0,6) and the borderless quad in [6,12).
var QuadVertices = [...]float32{
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	-1, -1, 1, 1, 1, 1, -1, 1, 1,

	-1, -1, 0, 1, -1, 0, 1, 1, 0,
	-1, -1, 0, 1, 1, 0, -1, 1, 0,
}

// FirstVertex is the first vertex of the geometry in QuadVertices.
func (d GeometryDetail) FirstVertex() uint32 {
	return uint32(d) * VerticesPerQuad
}

// DrawSet holds the draw parameters of every layer, indexed by Layer.
type DrawSet [LayerCount]DrawIndirectParameters

// DrawSetSize is the byte size of a packed DrawSet.
const DrawSetSize = LayerCount * DrawIndirectSize

// Bytes packs the records back to back, layer l at l.IndirectOffset().
func (ds *DrawSet) Bytes() []byte {
	buf := make([]byte, 0, DrawSetSize)
	for _, p := range ds {
		buf = append(buf, p.Bytes()...)
	}
	return buf
}

// IndirectOffset is the byte offset of l's record in a packed DrawSet.
func (l Layer) IndirectOffset() uint64 {
	return uint64(l) * DrawIndirectSize
}

// Scroll bars are drawn as one instance per axis.
const scrollBarInstances = 2

// BuildDrawSet computes the per-frame draw parameters. Everything except the
// instance counts and the body vertex range is constant.
func BuildDrawSet(cellsToShow [2]uint32, numViewports uint32, detail GeometryDetail) DrawSet {
	var ds DrawSet
	for i := range ds {
		ds[i].VertexCount = VerticesPerQuad
	}
	cols, rows := cellsToShow[0], cellsToShow[1]
	ds[LayerColumnFocus].InstanceCount = cols
	ds[LayerRowFocus].InstanceCount = rows
	ds[LayerShadow].InstanceCount = numViewports
	ds[LayerBody].InstanceCount = cols * rows
	ds[LayerBody].FirstVertex = detail.FirstVertex()
	ds[LayerColumnHeader].InstanceCount = cols
	ds[LayerRowHeader].InstanceCount = rows
	ds[LayerScrollBarTrack].InstanceCount = scrollBarInstances
	ds[LayerScrollBarHandle].InstanceCount = scrollBarInstances
	return ds
}
