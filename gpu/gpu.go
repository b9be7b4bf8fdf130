// Package gpu builds the hardware render backend of a gridview.Grid.
//
// The backend is a render state synchronizer on gogpu/wgpu/hal. It can run
// on a device the host already owns, on a device shared through a
// gpucontext.DeviceProvider (for example a gogpu window), or on a
// standalone Vulkan device:
//
//	backend, err := gpu.NewStandalone()
//	if err != nil {
//		log.Fatal(err) // gpu.ErrUnsupportedEnvironment without Vulkan
//	}
//	g, err := gridview.NewGrid(size, gridview.WithBackend(backend))
//
// There is no software fallback: without a device the engine cannot draw.
// Importing this package also routes gridview.SetLogger to the backend.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/gridview"
	gpuimpl "github.com/gogpu/gridview/internal/gpu"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var (
	// ErrUnsupportedEnvironment is returned by NewStandalone when no
	// compatible rendering backend or adapter is available.
	ErrUnsupportedEnvironment = errors.New("gpu: no compatible rendering backend")

	// ErrNilDevice is returned by New for a nil device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrNilProvider is returned by FromProvider for a nil provider.
	ErrNilProvider = errors.New("gpu: nil DeviceProvider")

	// ErrNoHAL is returned by FromProvider when the provider does not
	// expose hal.Device and hal.Queue.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL types")
)

func init() {
	gridview.RegisterLoggerHook(gpuimpl.SetLogger)
}

// Option configures a Backend.
type Option func(*options)

type options struct {
	format gputypes.TextureFormat
	spirv  bool
}

// WithFormat sets the color target format. It must match the surface view
// passed to SetSurfaceTarget. The default is BGRA8Unorm, or the provider's
// surface format for FromProvider.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithSPIRV compiles the shaders to SPIR-V with naga before handing them to
// the device.
func WithSPIRV() Option {
	return func(o *options) {
		o.spirv = true
	}
}

// Backend is a gridview render backend on a hal device. Pass it to
// gridview.WithBackend; the grid destroys it on Close.
type Backend struct {
	*gpuimpl.Synchronizer

	// set for standalone backends, which own their device
	instance hal.Instance
	device   hal.Device

	destroyed bool
}

// New creates a backend on a device and queue owned by the caller.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newBackend(device, queue, o), nil
}

func newBackend(device hal.Device, queue hal.Queue, o options) *Backend {
	return &Backend{
		Synchronizer: gpuimpl.NewSynchronizer(device, queue, gpuimpl.Options{
			Format: o.format,
			SPIRV:  o.spirv,
		}),
	}
}

// FromProvider creates a backend on the device of a host application. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The host keeps ownership of the
// device.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}

	o := options{format: provider.SurfaceFormat()}
	for _, opt := range opts {
		opt(&o)
	}
	return newBackend(device, queue, o), nil
}

// NewStandalone opens its own device on the Vulkan HAL backend, preferring
// a discrete or integrated GPU. It returns ErrUnsupportedEnvironment when
// Vulkan or a usable adapter is missing.
func NewStandalone(opts ...Option) (*Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrUnsupportedEnvironment)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", ErrUnsupportedEnvironment, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", ErrUnsupportedEnvironment)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %v", ErrUnsupportedEnvironment, err)
	}
	gridview.Logger().Info("gpu: device selected", "adapter", selected.Info.Name)

	b := newBackend(openDev.Device, openDev.Queue, o)
	b.instance = instance
	b.device = openDev.Device
	return b, nil
}

// Destroy releases the synchronizer and, for standalone backends, the
// device. Safe to call more than once.
func (b *Backend) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.Synchronizer.Destroy()
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// Standalone reports whether the backend owns its device.
func (b *Backend) Standalone() bool {
	return b.device != nil
}
