package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// textureSet holds the render targets of a synchronizer:
//   - MSAA color: SampleCount samples, only when SampleCount > 1
//   - Resolve: 1x sample, RenderAttachment | CopySrc, only offscreen
//
// In surface mode the caller's view replaces the resolve texture.
type textureSet struct {
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	width       uint32
	height      uint32
	samples     uint32
	offscreen   bool
}

// ensureTextures creates or recreates the targets when the requested
// dimensions, sample count or mode differ from the current ones. Otherwise
// it is a no-op.
func (ts *textureSet) ensureTextures(device hal.Device, format gputypes.TextureFormat, w, h, samples uint32, offscreen bool) error {
	if ts.width == w && ts.height == h && ts.samples == samples && ts.offscreen == offscreen {
		return nil
	}
	ts.destroyTextures(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if samples > 1 {
		msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "grid_msaa_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA color texture: %w", err)
		}
		ts.msaaTex = msaaTex

		msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: "grid_msaa_color_view",
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create MSAA color view: %w", err)
		}
		ts.msaaView = msaaView
	}

	if offscreen {
		resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "grid_resolve",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create resolve texture: %w", err)
		}
		ts.resolveTex = resolveTex

		resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
			Label: "grid_resolve_view",
		})
		if err != nil {
			ts.destroyTextures(device)
			return fmt.Errorf("create resolve view: %w", err)
		}
		ts.resolveView = resolveView
	}

	ts.width = w
	ts.height = h
	ts.samples = samples
	ts.offscreen = offscreen
	return nil
}

// colorAttachment returns the pass attachment drawing into target, through
// the MSAA texture when there is one.
func (ts *textureSet) colorAttachment(target hal.TextureView) hal.RenderPassColorAttachment {
	a := hal.RenderPassColorAttachment{
		View:       target,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: gputypes.Color{R: 1, G: 1, B: 1, A: 1},
	}
	if ts.msaaView != nil {
		a.View = ts.msaaView
		a.ResolveTarget = target
	}
	return a
}

// destroyTextures releases all textures and views. Safe to call multiple
// times. Resets the recorded dimensions.
func (ts *textureSet) destroyTextures(device hal.Device) {
	if ts.resolveView != nil {
		device.DestroyTextureView(ts.resolveView)
		ts.resolveView = nil
	}
	if ts.resolveTex != nil {
		device.DestroyTexture(ts.resolveTex)
		ts.resolveTex = nil
	}
	if ts.msaaView != nil {
		device.DestroyTextureView(ts.msaaView)
		ts.msaaView = nil
	}
	if ts.msaaTex != nil {
		device.DestroyTexture(ts.msaaTex)
		ts.msaaTex = nil
	}
	ts.width = 0
	ts.height = 0
	ts.samples = 0
	ts.offscreen = false
}
