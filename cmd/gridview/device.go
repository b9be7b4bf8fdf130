package main

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gridview"
	"github.com/gogpu/gridview/gpu"
	"github.com/gogpu/gridview/gpucore"
	"github.com/gogpu/gridview/internal/scenario"
	"github.com/gogpu/wgpu/hal/noop"
)

const (
	deviceNoop   = "noop"
	deviceVulkan = "vulkan"
)

// openDevice returns a backend factory for the named device and a function
// that releases what the factory shares.
func openDevice(name string) (scenario.BackendFunc, func(), error) {
	switch name {
	case deviceNoop:
		api := noop.API{}
		instance, err := api.CreateInstance(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("noop instance: %w", err)
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			instance.Destroy()
			return nil, nil, errors.New("noop: no adapter")
		}
		open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
		if err != nil {
			instance.Destroy()
			return nil, nil, fmt.Errorf("noop open: %w", err)
		}
		release := func() {
			open.Device.Destroy()
			instance.Destroy()
		}
		return func(int) (gpucore.RenderBackend, error) {
			return gpu.New(open.Device, open.Queue)
		}, release, nil

	case deviceVulkan:
		return func(int) (gpucore.RenderBackend, error) {
			return gpu.NewStandalone()
		}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown device %q (want %s or %s)", name, deviceNoop, deviceVulkan)
}

// openSession loads path and binds it to backends from the --device flag.
// The returned close function tears down the grids before the device.
func openSession(path string) (*scenario.Session, func(), error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, nil, err
	}
	newBackend, release, err := openDevice(deviceName)
	if err != nil {
		return nil, nil, err
	}
	s, err := scenario.Open(sc, newBackend)
	if err != nil {
		release()
		return nil, nil, err
	}
	gridview.Logger().Debug("gridview: session opened",
		"path", path, "device", deviceName, "viewports", len(s.Grids()))
	return s, func() {
		if err := s.Close(); err != nil {
			gridview.Logger().Warn("gridview: close session", "err", err)
		}
		release()
	}, nil
}
