// Package gpucore defines the backend-neutral render-state contract of the
// grid viewport engine.
//
// The engine never talks to a GPU API directly. It packs its viewport, grid,
// focus and selection state into the fixed set of uniform blocks, storage
// buffers and draw-indirect parameter records described here, and hands them
// to a [RenderBackend]. The hal-backed implementation lives in internal/gpu
// and is constructed through the public gpu package.
//
// # Layout contract
//
// [FrameUniforms] and [IndexUniforms] are consumed verbatim by grid.wgsl.
// Field order and sizes are part of the contract: any change here must be
// mirrored in the shader.
//
//	binding 0  uniform  FrameUniforms  (64 bytes, f32)
//	binding 1  uniform  IndexUniforms  (32 bytes, u32)
//	binding 2  storage  array<f32>     grid values
//	binding 3  storage  array<u32>     selection bitmask, 32 cells per word
//	binding 4  storage  array<u32>     per-axis focus flags
//	binding 5  storage  array<vec4f>   shared viewport rectangles
//
// # Layers
//
// Every visual layer is one instanced draw. Layers are submitted in
// [LayerOrder]: focus overlays, cross-viewport shadow, cell body, headers,
// scrollbar track, scrollbar handle. Per frame only the instance counts (and
// the body's vertex range, see [GeometryDetail]) change.
package gpucore
