package gpu

import (
	"github.com/gogpu/gridview/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// renderBundle is the precompiled command sequence of one layer: pipeline,
// bind group and quad geometry, then a draw whose counts come from the
// layer's record in the indirect buffer. It is recorded at Configure.
//
// On devices that record hal render bundles the sequence is also kept as a
// native bundle. The hal bundle encoder only offers direct draws, so a native
// bundle carries the counts it was recorded with and is re-recorded when the
// layer's record changes.
type renderBundle struct {
	layer     gpucore.Layer
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
	vertexBuf hal.Buffer
	indirect  hal.Buffer

	native hal.RenderBundle
	baked  gpucore.DrawIndirectParameters
}

func (b *renderBundle) recorded() bool {
	return b.pipeline != nil && b.bindGroup != nil && b.vertexBuf != nil && b.indirect != nil
}

// current reports whether the native bundle was recorded with p.
func (b *renderBundle) current(p gpucore.DrawIndirectParameters) bool {
	return b.native != nil && b.baked == p
}

// replay records the bundle into rp. Empty draws are skipped. A native
// bundle recorded with p is executed as is; otherwise the state is set and
// the draw reads the indirect buffer.
func (b *renderBundle) replay(rp hal.RenderPassEncoder, p gpucore.DrawIndirectParameters) bool {
	if !b.recorded() || p.VertexCount == 0 || p.InstanceCount == 0 {
		return false
	}
	if b.current(p) {
		rp.ExecuteBundle(b.native)
		return true
	}
	rp.SetPipeline(b.pipeline)
	rp.SetBindGroup(0, b.bindGroup, nil)
	rp.SetVertexBuffer(0, b.vertexBuf, 0)
	rp.DrawIndirect(b.indirect, b.layer.IndirectOffset())
	return true
}

// record encodes a native bundle drawing with p, replacing any previous one.
func (b *renderBundle) record(device hal.Device, desc *hal.RenderBundleEncoderDescriptor, p gpucore.DrawIndirectParameters) error {
	enc, err := device.CreateRenderBundleEncoder(desc)
	if err != nil {
		return err
	}
	enc.SetPipeline(b.pipeline)
	enc.SetBindGroup(0, b.bindGroup, nil)
	enc.SetVertexBuffer(0, b.vertexBuf, 0)
	enc.Draw(p.VertexCount, p.InstanceCount, p.FirstVertex, p.FirstInstance)
	native := enc.Finish()

	b.release(device)
	b.native = native
	b.baked = p
	return nil
}

func (b *renderBundle) release(device hal.Device) {
	if b.native != nil {
		device.DestroyRenderBundle(b.native)
		b.native = nil
	}
	b.baked = gpucore.DrawIndirectParameters{}
}

// drawCall is one replayed bundle of a frame.
type drawCall struct {
	Layer  gpucore.Layer
	Params gpucore.DrawIndirectParameters
}

// plan returns the bundles a frame replays, in submission order.
func plan(bundles *[gpucore.LayerCount]renderBundle, draws *gpucore.DrawSet) []drawCall {
	calls := make([]drawCall, 0, gpucore.LayerCount)
	for _, layer := range gpucore.LayerOrder {
		p := draws[layer]
		if !bundles[layer].recorded() || p.VertexCount == 0 || p.InstanceCount == 0 {
			continue
		}
		calls = append(calls, drawCall{Layer: layer, Params: p})
	}
	return calls
}
