// Package gpu implements the render state synchronizer of the grid viewport
// engine on top of gogpu/wgpu/hal.
//
// A Synchronizer owns every device object the grid needs: one uniform
// buffer per uniform block, the four storage buffers (cell values,
// selection bitmask, focus flags, shared viewport rectangles), a static
// quad vertex buffer carrying both body geometries, one render pipeline per
// visual layer and the render targets. It implements
// gpucore.RenderBackend.
//
// # Render bundles
//
// Configure records one bundle per layer: the pipeline, bind group and
// vertex buffer a layer draws with. Bundles are rebuilt only when a
// pipeline-level setting changes (grid size, canvas size, sample count).
// Per frame, UpdateFrame replaces the draw parameters and Execute replays
// the bundles in gpucore.LayerOrder inside a single render pass.
//
// # Submission
//
// Execute does not wait for the GPU. The command buffer of a frame is kept
// until the next Execute (or Destroy), which waits on the frame's fence
// value before freeing it.
//
// # Shaders
//
// All layers live in shaders/grid.wgsl, one vs_/fs_ entry point pair per
// layer. With Options.SPIRV the source is compiled to SPIR-V by naga before
// the module is created; otherwise the WGSL is handed to the device as is.
package gpu
