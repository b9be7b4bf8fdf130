package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gridview/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Synchronizer errors.
var (
	// ErrNotConfigured is returned by updates and Execute before Configure.
	ErrNotConfigured = errors.New("gpu: synchronizer not configured")

	// ErrNoFrame is returned by Execute before the first UpdateFrame after
	// Configure.
	ErrNoFrame = errors.New("gpu: no frame parameters")

	// ErrBufferLength is returned when an update does not cover the whole
	// buffer.
	ErrBufferLength = errors.New("gpu: buffer length mismatch")

	// ErrInvalidConfig is returned by Configure for unusable sizes.
	ErrInvalidConfig = errors.New("gpu: invalid surface config")

	// ErrDestroyed is returned after Destroy.
	ErrDestroyed = errors.New("gpu: synchronizer destroyed")
)

// Bind group slots. Must match the @binding attributes in grid.wgsl.
const (
	bindingFrame = iota
	bindingIndex
	bindingData
	bindingSelection
	bindingFocus
	bindingViewports
	bindingCount
)

var bindingLabels = [bindingCount]string{
	"grid_frame_uniforms",
	"grid_index_uniforms",
	"grid_cell_values",
	"grid_selection",
	"grid_focus",
	"grid_viewports",
}

// Options configures a Synchronizer.
type Options struct {
	// Format is the color target format. Zero selects BGRA8Unorm, the
	// format of the offscreen targets and of most surfaces.
	Format gputypes.TextureFormat

	// SPIRV compiles the WGSL to SPIR-V with naga before creating the
	// shader module, for devices that do not ingest WGSL.
	SPIRV bool
}

// Synchronizer is the hal-backed gpucore.RenderBackend. It is not safe for
// concurrent use; the owning grid serializes calls.
type Synchronizer struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	spirv  bool

	cfg        gpucore.SurfaceConfig
	configured bool
	destroyed  bool

	// Size-independent objects, created once.
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	vertexBuf  hal.Buffer

	// Rebuilt when the sample count changes.
	pipelines       [gpucore.LayerCount]hal.RenderPipeline
	pipelineSamples uint32

	// Rebuilt on every Configure.
	buffers   [bindingCount]hal.Buffer
	sizes     [bindingCount]uint64
	indirect  hal.Buffer
	bindGroup hal.BindGroup
	bundles   [gpucore.LayerCount]renderBundle

	// nativeBundles is cleared the first time the device refuses a render
	// bundle encoder; bundles then replay through the render pass.
	nativeBundles bool

	textures    textureSet
	surfaceView hal.TextureView

	draws      gpucore.DrawSet
	frameReady bool

	frames   uint64
	inflight *submission
}

// submission is a frame the GPU may still be executing.
type submission struct {
	encoder hal.CommandEncoder
	cmdBuf  hal.CommandBuffer
	index   uint64
}

var _ gpucore.RenderBackend = (*Synchronizer)(nil)

// NewSynchronizer creates a synchronizer on device and queue. No device
// objects are created until Configure.
func NewSynchronizer(device hal.Device, queue hal.Queue, opts Options) *Synchronizer {
	format := opts.Format
	if format == 0 {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	return &Synchronizer{
		device:        device,
		queue:         queue,
		format:        format,
		spirv:         opts.SPIRV,
		nativeBundles: true,
	}
}

// SetSurfaceTarget makes Execute render into view instead of the offscreen
// resolve texture. nil returns to offscreen rendering. The caller keeps
// ownership of the view, which must match the configured canvas size.
func (s *Synchronizer) SetSurfaceTarget(view hal.TextureView) {
	s.surfaceView = view
}

// Config returns the active configuration.
func (s *Synchronizer) Config() gpucore.SurfaceConfig { return s.cfg }

// Configured reports whether Configure succeeded since creation.
func (s *Synchronizer) Configured() bool { return s.configured }

// Frames returns the number of submitted frames.
func (s *Synchronizer) Frames() uint64 { return s.frames }

// Draws returns the draw parameters of the next Execute.
func (s *Synchronizer) Draws() gpucore.DrawSet { return s.draws }

// NativeBundles reports whether layers are replayed from hal render bundles.
func (s *Synchronizer) NativeBundles() bool { return s.nativeBundles }

func validateConfig(cfg gpucore.SurfaceConfig) error {
	switch {
	case cfg.Columns == 0 || cfg.Rows == 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, cfg.Columns, cfg.Rows)
	case cfg.Width == 0 || cfg.Height == 0:
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	case cfg.SampleCount != 1 && cfg.SampleCount != 4:
		return fmt.Errorf("%w: sample count %d", ErrInvalidConfig, cfg.SampleCount)
	case cfg.NumViewports == 0:
		return fmt.Errorf("%w: no viewports", ErrInvalidConfig)
	}
	return nil
}

// bufferSizes returns the byte size of every binding for cfg.
func bufferSizes(cfg gpucore.SurfaceConfig) [bindingCount]uint64 {
	return [bindingCount]uint64{
		bindingFrame:     gpucore.FrameUniformsSize,
		bindingIndex:     gpucore.IndexUniformsSize,
		bindingData:      uint64(cfg.Cells()) * 4,
		bindingSelection: uint64(cfg.SelectionWords()) * 4,
		bindingFocus:     uint64(cfg.FocusWords()) * 4,
		bindingViewports: uint64(cfg.NumViewports) * 16,
	}
}

// Configure (re)allocates every size-dependent object: storage, uniform and
// indirect buffers, the bind group, render targets and the per-layer
// bundles. All buffers start zeroed; the caller uploads state afterwards.
func (s *Synchronizer) Configure(cfg gpucore.SurfaceConfig) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if err := s.releaseInflight(); err != nil {
		return err
	}
	s.configured = false

	if err := s.ensurePipelines(cfg.SampleCount); err != nil {
		return fmt.Errorf("ensure pipelines: %w", err)
	}
	if err := s.ensureStatic(); err != nil {
		return err
	}

	s.destroySizeDependent()
	if err := s.createBuffers(cfg); err != nil {
		s.destroySizeDependent()
		return err
	}
	if err := s.textures.ensureTextures(s.device, s.format, cfg.Width, cfg.Height, cfg.SampleCount, s.surfaceView == nil); err != nil {
		s.destroySizeDependent()
		return fmt.Errorf("ensure textures: %w", err)
	}
	s.recordBundles()

	s.cfg = cfg
	s.configured = true
	s.frameReady = false
	s.draws = gpucore.DrawSet{}

	total := uint64(gpucore.DrawSetSize)
	for _, n := range s.sizes {
		total += n
	}
	slogger().Debug("gpu: synchronizer configured",
		"columns", cfg.Columns, "rows", cfg.Rows,
		"width", cfg.Width, "height", cfg.Height,
		"samples", cfg.SampleCount, "viewports", cfg.NumViewports,
		"buffer_bytes", total)
	return nil
}

// ensurePipelines creates the shader, layouts and one pipeline per layer.
// Pipelines are rebuilt only when the sample count changes.
func (s *Synchronizer) ensurePipelines(samples uint32) error {
	if s.shader == nil {
		if err := s.createShaderAndLayouts(); err != nil {
			return err
		}
	}
	if s.pipelines[0] != nil && s.pipelineSamples == samples {
		return nil
	}
	s.destroyPipelines()

	premulBlend := gputypes.BlendStatePremultiplied()
	for _, layer := range gpucore.LayerOrder {
		pipeline, err := s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  "grid_" + layer.String(),
			Layout: s.pipeLayout,
			Vertex: hal.VertexState{
				Module:     s.shader,
				EntryPoint: layer.VertexEntryPoint(),
				Buffers:    quadVertexLayout(),
			},
			Fragment: &hal.FragmentState{
				Module:     s.shader,
				EntryPoint: layer.FragmentEntryPoint(),
				Targets: []gputypes.ColorTargetState{
					{
						Format:    s.format,
						Blend:     &premulBlend,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count: samples,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			s.destroyPipelines()
			return fmt.Errorf("create %s pipeline: %w", layer, err)
		}
		s.pipelines[layer] = pipeline
	}
	s.pipelineSamples = samples
	slogger().Debug("gpu: pipelines created", "layers", gpucore.LayerCount, "samples", samples)
	return nil
}

func (s *Synchronizer) createShaderAndLayouts() error {
	source, err := gridShaderModuleSource(s.spirv)
	if err != nil {
		return err
	}
	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "grid_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("create grid shader: %w", err)
	}
	s.shader = shader

	visibility := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	entries := make([]gputypes.BindGroupLayoutEntry, bindingCount)
	for i := range entries {
		kind := gputypes.BufferBindingTypeReadOnlyStorage
		if i == bindingFrame || i == bindingIndex {
			kind = gputypes.BufferBindingTypeUniform
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: visibility,
			Buffer:     &gputypes.BufferBindingLayout{Type: kind},
		}
	}
	bindLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "grid_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create grid bind group layout: %w", err)
	}
	s.bindLayout = bindLayout

	pipeLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "grid_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create grid pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout
	return nil
}

// ensureStatic creates the quad vertex buffer holding both geometries.
func (s *Synchronizer) ensureStatic() error {
	if s.vertexBuf != nil {
		return nil
	}
	data := gpucore.PackFloat32s(gpucore.QuadVertices[:])
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grid_quad_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create quad vertex buffer: %w", err)
	}
	if err := s.queue.WriteBuffer(buf, 0, data); err != nil {
		s.device.DestroyBuffer(buf)
		return fmt.Errorf("write quad vertices: %w", err)
	}
	s.vertexBuf = buf
	return nil
}

func (s *Synchronizer) createBuffers(cfg gpucore.SurfaceConfig) error {
	sizes := bufferSizes(cfg)
	for i, size := range sizes {
		usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
		if i == bindingFrame || i == bindingIndex {
			usage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
		}
		buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: bindingLabels[i],
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", bindingLabels[i], err)
		}
		s.buffers[i] = buf
		s.sizes[i] = size
	}

	indirect, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grid_draw_indirect",
		Size:  uint64(gpucore.DrawSetSize),
		Usage: gputypes.BufferUsageIndirect | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create grid_draw_indirect: %w", err)
	}
	s.indirect = indirect

	entries := make([]gputypes.BindGroupEntry, bindingCount)
	for i := range entries {
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i),
			Resource: gputypes.BufferBinding{
				Buffer: s.buffers[i].NativeHandle(), Offset: 0, Size: s.sizes[i],
			},
		}
	}
	bindGroup, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "grid_bind",
		Layout:  s.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create grid bind group: %w", err)
	}
	s.bindGroup = bindGroup
	return nil
}

// recordBundles records one bundle per layer against the current bind
// group and indirect buffer.
func (s *Synchronizer) recordBundles() {
	for _, layer := range gpucore.LayerOrder {
		s.bundles[layer] = renderBundle{
			layer:     layer,
			pipeline:  s.pipelines[layer],
			bindGroup: s.bindGroup,
			vertexBuf: s.vertexBuf,
			indirect:  s.indirect,
		}
	}
}

// recordNative brings every non-empty layer's native bundle up to date with
// s.draws. The first refusal switches the synchronizer to indirect replay
// for good.
func (s *Synchronizer) recordNative() error {
	if !s.nativeBundles {
		return nil
	}
	var stale []gpucore.Layer
	for _, layer := range gpucore.LayerOrder {
		b, p := &s.bundles[layer], s.draws[layer]
		if b.recorded() && p.VertexCount != 0 && p.InstanceCount != 0 && !b.current(p) {
			stale = append(stale, layer)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	// The previous frame may still execute the bundles being replaced.
	if err := s.releaseInflight(); err != nil {
		return err
	}
	desc := &hal.RenderBundleEncoderDescriptor{
		ColorFormats: []gputypes.TextureFormat{s.format},
		SampleCount:  s.cfg.SampleCount,
	}
	for _, layer := range stale {
		desc.Label = "grid_" + layer.String() + "_bundle"
		if err := s.bundles[layer].record(s.device, desc, s.draws[layer]); err != nil {
			s.nativeBundles = false
			s.releaseNative()
			slogger().Debug("gpu: render bundles unavailable, drawing indirect", "err", err)
			return nil
		}
	}
	slogger().Debug("gpu: render bundles recorded", "layers", len(stale))
	return nil
}

func (s *Synchronizer) releaseNative() {
	for i := range s.bundles {
		s.bundles[i].release(s.device)
	}
}

func (s *Synchronizer) write(binding int, data []byte) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if !s.configured {
		return ErrNotConfigured
	}
	if uint64(len(data)) != s.sizes[binding] {
		return fmt.Errorf("%w: %s got %d bytes, want %d", ErrBufferLength, bindingLabels[binding], len(data), s.sizes[binding])
	}
	if err := s.queue.WriteBuffer(s.buffers[binding], 0, data); err != nil {
		return fmt.Errorf("write %s: %w", bindingLabels[binding], err)
	}
	return nil
}

// UpdateDataBufferStorage overwrites the cell values.
func (s *Synchronizer) UpdateDataBufferStorage(values []float32) error {
	return s.write(bindingData, gpucore.PackFloat32s(values))
}

// UpdateFocusedCellPositionStorage overwrites the per-axis focus flags.
func (s *Synchronizer) UpdateFocusedCellPositionStorage(focus []uint32) error {
	return s.write(bindingFocus, gpucore.PackUint32s(focus))
}

// UpdateSelectedStateStorage overwrites the selection bitmask.
func (s *Synchronizer) UpdateSelectedStateStorage(words []uint32) error {
	return s.write(bindingSelection, gpucore.PackUint32s(words))
}

// UpdateViewportStateStorage overwrites the shared viewport array.
func (s *Synchronizer) UpdateViewportStateStorage(rects [][4]float32) error {
	return s.write(bindingViewports, gpucore.PackRects(rects))
}

// UpdateFrame writes both uniform blocks and the per-layer draw records of
// the indirect buffer, and re-records native bundles whose counts changed.
func (s *Synchronizer) UpdateFrame(frame *gpucore.FrameUniforms, index *gpucore.IndexUniforms, draws *gpucore.DrawSet) error {
	if frame == nil || index == nil || draws == nil {
		return errors.New("gpu: nil frame parameters")
	}
	if err := s.write(bindingFrame, frame.Bytes()); err != nil {
		return err
	}
	if err := s.write(bindingIndex, index.Bytes()); err != nil {
		return err
	}
	if err := s.queue.WriteBuffer(s.indirect, 0, draws.Bytes()); err != nil {
		return fmt.Errorf("write grid_draw_indirect: %w", err)
	}
	s.draws = *draws
	s.frameReady = true
	return s.recordNative()
}

// Execute replays every layer's bundle in gpucore.LayerOrder in one render
// pass and submits it without waiting for completion.
func (s *Synchronizer) Execute() error {
	if s.destroyed {
		return ErrDestroyed
	}
	if !s.configured {
		return ErrNotConfigured
	}
	if !s.frameReady {
		return ErrNoFrame
	}
	if err := s.releaseInflight(); err != nil {
		return err
	}
	offscreen := s.surfaceView == nil
	if err := s.textures.ensureTextures(s.device, s.format, s.cfg.Width, s.cfg.Height, s.cfg.SampleCount, offscreen); err != nil {
		return fmt.Errorf("ensure textures: %w", err)
	}
	target := s.surfaceView
	if offscreen {
		target = s.textures.resolveView
	}

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "grid_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("grid_frame"); err != nil {
		encoder.Destroy()
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "grid_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{s.textures.colorAttachment(target)},
	})
	for _, call := range plan(&s.bundles, &s.draws) {
		s.bundles[call.Layer].replay(rp, call.Params)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("end encoding: %w", err)
	}

	index, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		s.device.FreeCommandBuffer(cmdBuf)
		encoder.Destroy()
		return fmt.Errorf("submit: %w", err)
	}
	s.frames++
	s.inflight = &submission{encoder: encoder, cmdBuf: cmdBuf, index: index}
	return nil
}

// releaseInflight waits for the previous frame and frees its command buffer
// and encoder.
func (s *Synchronizer) releaseInflight() error {
	if s.inflight == nil {
		return nil
	}
	if s.queue.PollCompleted() < s.inflight.index {
		if err := s.device.WaitIdle(); err != nil {
			return fmt.Errorf("wait for frame %d: %w", s.frames, err)
		}
	}
	s.device.FreeCommandBuffer(s.inflight.cmdBuf)
	s.inflight.encoder.Destroy()
	s.inflight = nil
	return nil
}

// Destroy waits for the last frame and releases every device object. Safe
// to call more than once. The surface view is not destroyed.
func (s *Synchronizer) Destroy() {
	if s.destroyed {
		return
	}
	if err := s.releaseInflight(); err != nil {
		slogger().Warn("gpu: destroy with frame in flight", "err", err)
		s.inflight = nil
	}
	s.destroySizeDependent()
	s.textures.destroyTextures(s.device)
	s.destroyPipelines()
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bindLayout != nil {
		s.device.DestroyBindGroupLayout(s.bindLayout)
		s.bindLayout = nil
	}
	if s.shader != nil {
		s.device.DestroyShaderModule(s.shader)
		s.shader = nil
	}
	if s.vertexBuf != nil {
		s.device.DestroyBuffer(s.vertexBuf)
		s.vertexBuf = nil
	}
	s.surfaceView = nil
	s.configured = false
	s.destroyed = true
}

// destroySizeDependent releases the bundles, bind group and buffers in
// reverse creation order.
func (s *Synchronizer) destroySizeDependent() {
	s.releaseNative()
	s.bundles = [gpucore.LayerCount]renderBundle{}
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.indirect != nil {
		s.device.DestroyBuffer(s.indirect)
		s.indirect = nil
	}
	for i := bindingCount - 1; i >= 0; i-- {
		if s.buffers[i] != nil {
			s.device.DestroyBuffer(s.buffers[i])
			s.buffers[i] = nil
		}
		s.sizes[i] = 0
	}
}

func (s *Synchronizer) destroyPipelines() {
	for i := len(s.pipelines) - 1; i >= 0; i-- {
		if s.pipelines[i] != nil {
			s.device.DestroyRenderPipeline(s.pipelines[i])
			s.pipelines[i] = nil
		}
	}
	s.pipelineSamples = 0
}

// quadVertexLayout returns the vertex buffer layout of gpucore.QuadVertices.
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: gpucore.QuadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // corner
				{Format: gputypes.VertexFormatFloat32, Offset: 8, ShaderLocation: 1},   // margin
			},
		},
	}
}
