package gpucore

// SurfaceConfig carries the pipeline-level configuration. Changing any field
// rebuilds size-dependent buffers and render bundles.
type SurfaceConfig struct {
	// Columns and Rows give the grid size.
	Columns, Rows uint32

	// Width and Height give the canvas size in pixels.
	Width, Height uint32

	// SampleCount is the multisample count (1 or 4).
	SampleCount uint32

	// NumViewports is the length of the shared viewport array.
	NumViewports uint32
}

// Cells returns the number of grid cells.
func (c SurfaceConfig) Cells() int { return int(c.Columns) * int(c.Rows) }

// SelectionWords returns the number of 32-bit selection words.
func (c SurfaceConfig) SelectionWords() int { return (c.Cells() + 31) / 32 }

// FocusWords returns the length of the per-axis focus array.
func (c SurfaceConfig) FocusWords() int { return int(max(c.Columns, c.Rows)) }

// RenderBackend consumes packed render state. All Update* methods are
// whole-buffer overwrites and idempotent. Execute submits every layer's
// render bundle in LayerOrder and does not wait for completion.
//
// Calls must come from the goroutine that owns the grid; implementations
// are not required to be safe for concurrent use.
type RenderBackend interface {
	// Configure (re)allocates size-dependent resources.
	Configure(cfg SurfaceConfig) error

	// UpdateDataBufferStorage overwrites the grid values.
	UpdateDataBufferStorage(values []float32) error

	// UpdateFocusedCellPositionStorage overwrites the focus array.
	UpdateFocusedCellPositionStorage(focus []uint32) error

	// UpdateSelectedStateStorage overwrites the selection bitmask.
	UpdateSelectedStateStorage(words []uint32) error

	// UpdateViewportStateStorage overwrites the shared viewport array.
	UpdateViewportStateStorage(rects [][4]float32) error

	// UpdateFrame writes both uniform blocks and the draw parameters.
	UpdateFrame(frame *FrameUniforms, index *IndexUniforms, draws *DrawSet) error

	// Execute submits the render bundles.
	Execute() error

	// Destroy releases all resources. Safe to call more than once.
	Destroy()
}
