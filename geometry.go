package gridview

// Frame is the state the cell-to-screen transform depends on. All methods
// are pure; the renderer's shader evaluates the same forward chain and the
// hit-tester uses the inverse chain, so both directions live here and must
// change together.
//
// Coordinate spaces, in forward order:
//
//	cell      instance offset from the anchor cell, plus a quad corner
//	world     continuous grid position in cell units
//	viewport  [0,1]² across the visible window
//	frame     viewport blended with the header band, in canvas fractions
//	canvas    frame shifted by the overscroll
//	clip      device clip space, Y up
//
// Client pixels (origin top-left, Y down) convert to and from clip space.
type Frame struct {
	Viewport   Rect
	Canvas     Vec2 // canvas size in pixels
	Header     Vec2 // row header width, column header height in pixels
	Overscroll Vec2 // elastic offset in pixels
}

// Anchor returns the cell the instanced draw starts from:
// floor(left), floor(top).
func (f Frame) Anchor() Vec2 {
	return f.Viewport.TopLeft().Floor()
}

// BodySize returns the pixel size of the cell body region.
func (f Frame) BodySize() Vec2 {
	return f.Canvas.Sub(f.Header)
}

// CellSize returns the on-screen size of one cell in pixels.
func (f Frame) CellSize() Vec2 {
	return f.BodySize().DivVec(f.Viewport.Size())
}

// CellToWorld maps an instance cell offset and a quad corner in [-1,1]²
// to a world position.
func (f Frame) CellToWorld(cell, corner Vec2) Vec2 {
	return f.Anchor().Add(cell).Add(corner.Add(V2(1, 1)).Mul(0.5))
}

// WorldToCell inverts CellToWorld for a known corner.
func (f Frame) WorldToCell(world, corner Vec2) Vec2 {
	return world.Sub(f.Anchor()).Sub(corner.Add(V2(1, 1)).Mul(0.5))
}

// WorldToViewportNormalized maps world to [0,1]² across the visible window.
func (f Frame) WorldToViewportNormalized(world Vec2) Vec2 {
	return world.Sub(f.Viewport.TopLeft()).DivVec(f.Viewport.Size())
}

// ViewportNormalizedToWorld inverts WorldToViewportNormalized.
func (f Frame) ViewportNormalizedToWorld(v Vec2) Vec2 {
	return f.Viewport.TopLeft().Add(v.MulVec(f.Viewport.Size()))
}

// ViewportNormalizedToFrame blends the header margin and the canvas size so
// the header band keeps a fixed pixel size at any zoom:
// frame = (header·v + canvas·(1−v)) / canvas.
func (f Frame) ViewportNormalizedToFrame(v Vec2) Vec2 {
	one := V2(1, 1)
	return f.Header.MulVec(v).Add(f.Canvas.MulVec(one.Sub(v))).DivVec(f.Canvas)
}

// FrameToViewportNormalized inverts ViewportNormalizedToFrame:
// v = (canvas − frame·canvas) / (canvas − header).
func (f Frame) FrameToViewportNormalized(frame Vec2) Vec2 {
	return f.Canvas.Sub(frame.MulVec(f.Canvas)).DivVec(f.BodySize())
}

// FrameToCanvas applies the overscroll: canvas = frame + (overscroll − header)/canvas.
func (f Frame) FrameToCanvas(frame Vec2) Vec2 {
	return frame.Add(f.Overscroll.Sub(f.Header).DivVec(f.Canvas))
}

// CanvasToFrame inverts FrameToCanvas.
func (f Frame) CanvasToFrame(canvas Vec2) Vec2 {
	return canvas.Sub(f.Overscroll.Sub(f.Header).DivVec(f.Canvas))
}

// CanvasToClip maps [0,1]² to clip space with the Y flip:
// clip = canvas·(−1,1) + (1−canvas)·(1,−1).
func CanvasToClip(canvas Vec2) Vec2 {
	return V2(1-2*canvas.X, 2*canvas.Y-1)
}

// ClipToCanvas inverts CanvasToClip.
func ClipToCanvas(clip Vec2) Vec2 {
	return V2((1-clip.X)/2, (clip.Y+1)/2)
}

// ClientToClip maps client pixels (Y down) to clip space (Y up).
func (f Frame) ClientToClip(client Vec2) Vec2 {
	return V2(2*client.X/f.Canvas.X-1, 1-2*client.Y/f.Canvas.Y)
}

// ClipToClient inverts ClientToClip.
func (f Frame) ClipToClient(clip Vec2) Vec2 {
	return V2((clip.X+1)/2*f.Canvas.X, (1-clip.Y)/2*f.Canvas.Y)
}

// WorldToClip runs the forward chain from a world position.
func (f Frame) WorldToClip(world Vec2) Vec2 {
	v := f.WorldToViewportNormalized(world)
	return CanvasToClip(f.FrameToCanvas(f.ViewportNormalizedToFrame(v)))
}

// ClipToWorld runs the inverse chain: clip⁻¹ ∘ canvas⁻¹ ∘ frame⁻¹ ∘ viewport⁻¹.
func (f Frame) ClipToWorld(clip Vec2) Vec2 {
	frame := f.CanvasToFrame(ClipToCanvas(clip))
	return f.ViewportNormalizedToWorld(f.FrameToViewportNormalized(frame))
}

// Forward maps an instance cell and quad corner to clip space, exactly as
// the vertex shader does.
func (f Frame) Forward(cell, corner Vec2) Vec2 {
	return f.WorldToClip(f.CellToWorld(cell, corner))
}

// Inverse maps a clip position back to the world position under it.
func (f Frame) Inverse(clip Vec2) Vec2 {
	return f.ClipToWorld(clip)
}

// ClientToWorld maps client pixels to the world position under them.
func (f Frame) ClientToWorld(client Vec2) Vec2 {
	return f.ClipToWorld(f.ClientToClip(client))
}

// WorldToClient maps a world position to client pixels.
func (f Frame) WorldToClient(world Vec2) Vec2 {
	return f.ClipToClient(f.WorldToClip(world))
}
