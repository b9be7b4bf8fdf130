package scenario

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/gogpu/gridview"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	previewBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	previewHeader     = color.RGBA{R: 217, G: 217, B: 224, A: 255}
	previewSelected   = [3]float64{0.2, 0.5, 1.0}
	previewFocused    = [3]float64{1.0, 0.8, 0.2}
)

// Preview draws a CPU approximation of what viewport g shows: the body
// cells with selection and focus tints, and empty header strips. Cells are
// mapped through the same world-to-client transform the shaders use, so
// zoom, pan and overscroll match the GPU output.
func Preview(g *gridview.Grid) *image.RGBA {
	f := g.Frame()
	w, h := int(f.Canvas.X), int(f.Canvas.Y)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	hx, hy := int(f.Header.X), int(f.Header.Y)
	draw.Draw(dst, image.Rect(0, 0, w, hy), image.NewUniform(previewHeader), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, hx, h), image.NewUniform(previewHeader), image.Point{}, draw.Src)

	src := cellImage(g, f)
	if src.Bounds().Empty() {
		return dst
	}
	origin := f.WorldToClient(gridview.V2(0, 0))
	cell := f.CellSize()
	s2d := f64.Aff3{
		cell.X, 0, origin.X,
		0, cell.Y, origin.Y,
	}
	body := dst.SubImage(image.Rect(hx, hy, w, h)).(*image.RGBA)
	draw.NearestNeighbor.Transform(body, s2d, src, src.Bounds(), draw.Src, nil)
	return dst
}

// cellImage renders the visible cell window one pixel per cell. Pixel
// coordinates equal cell coordinates.
func cellImage(g *gridview.Grid, f gridview.Frame) *image.RGBA {
	size := g.Size()
	r := f.Viewport
	c0 := max(0, int(math.Floor(r.Left))-1)
	r0 := max(0, int(math.Floor(r.Top))-1)
	c1 := min(size.Columns, int(math.Ceil(r.Right))+1)
	r1 := min(size.Rows, int(math.Ceil(r.Bottom))+1)
	img := image.NewRGBA(image.Rect(c0, r0, c1, r1))
	if img.Bounds().Empty() {
		return img
	}

	values := g.Group().Values()
	focus := g.Focus()
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			v := float64(values[row*size.Columns+col])
			v = math.Max(0, math.Min(1, v))
			rgb := [3]float64{v, v, v}
			if g.Selected(col, row) {
				rgb = mix(rgb, previewSelected, 0.5)
			}
			if focused(focus, col, row) {
				rgb = mix(rgb, previewFocused, 0.35)
			}
			img.SetRGBA(col, row, color.RGBA{
				R: uint8(rgb[0]*255 + 0.5),
				G: uint8(rgb[1]*255 + 0.5),
				B: uint8(rgb[2]*255 + 0.5),
				A: 255,
			})
		}
	}
	return img
}

func focused(focus gridview.CellRef, col, row int) bool {
	if focus == gridview.NoCell {
		return false
	}
	colOK := focus.Column == gridview.HeaderIndex || focus.Column == col
	rowOK := focus.Row == gridview.HeaderIndex || focus.Row == row
	return colOK && rowOK
}

func mix(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// WritePNG encodes the preview of g to w.
func WritePNG(w io.Writer, g *gridview.Grid) error {
	return png.Encode(w, Preview(g))
}
