package scenario

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gridview"
	"github.com/gogpu/gridview/gpu"
	"github.com/gogpu/gridview/gpucore"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func openSession(t *testing.T, data string) (*Session, []*gpu.Backend) {
	t.Helper()
	sc, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	device, queue := createNoopDevice(t)
	var backends []*gpu.Backend
	s, err := Open(sc, func(int) (gpucore.RenderBackend, error) {
		b, err := gpu.New(device, queue)
		if err == nil {
			backends = append(backends, b)
		}
		return b, err
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, backends
}

const zoomSelect = `
columns = 16
rows = 16
canvas = [200, 200]
source = "gradient"

[[step]]
action = "wheel"
x = 100
y = 100
delta = -1

[[step]]
action = "select"
column = 3
row = 4

[[step]]
action = "step"
`

func TestSessionRun(t *testing.T) {
	s, backends := openSession(t, zoomSelect)
	if len(backends) != 1 {
		t.Fatalf("created %d backends, want 1", len(backends))
	}
	var out bytes.Buffer
	if err := s.Run(&out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("trace has %d lines, want 3:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "selected=1") {
		t.Errorf("select trace = %q", lines[1])
	}

	g := s.Grids()[0]
	if w := g.Viewport().Width(); w >= 16 {
		t.Errorf("viewport width %g after zooming in, want < 16", w)
	}
	if !g.Selected(3, 4) {
		t.Error("cell (3, 4) not selected")
	}
	if backends[0].Frames() < 3 {
		t.Errorf("Frames() = %d, want at least 3", backends[0].Frames())
	}
}

func TestSessionPanAndInertia(t *testing.T) {
	s, _ := openSession(t, `
columns = 64
rows = 64
canvas = [320, 320]

[[step]]
action = "viewport"
rect = [16, 16, 32, 32]

[[step]]
action = "down"
x = 160
y = 160

[[step]]
action = "move"
x = 140
y = 160

[[step]]
action = "move"
x = 120
y = 160

[[step]]
action = "up"
x = 120
y = 160

[[step]]
action = "tick"
count = 500
`)
	if err := s.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	g := s.Grids()[0]
	if r := g.Viewport(); r.Left <= 16 {
		t.Errorf("viewport left = %g after dragging left, want > 16", r.Left)
	}
	if g.Animating() {
		t.Error("inertia still running after 500 ticks")
	}
	if g.GestureKind() != gridview.GestureIdle {
		t.Errorf("gesture = %s after release", g.GestureKind())
	}
}

func TestSessionMultiViewport(t *testing.T) {
	s, backends := openSession(t, `
columns = 32
rows = 32
canvas = [200, 200]
viewports = 2

[[step]]
action = "select"
column = 20
row = 5
viewport = 1
`)
	if len(backends) != 2 {
		t.Fatalf("created %d backends, want 2", len(backends))
	}
	a, b := s.Grids()[0], s.Grids()[1]
	if a.Viewport().Right > 16.01 || b.Viewport().Left < 15.99 {
		t.Errorf("bands = %+v, %+v", a.Viewport(), b.Viewport())
	}
	if err := s.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.Selected(20, 5) {
		t.Error("selection made in viewport 1 not visible in viewport 0")
	}
	if got := s.Group().Len(); got != 2 {
		t.Errorf("group Len = %d, want 2", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !s.Group().Released() {
		t.Error("group not released after Close")
	}
}

func TestFrameScheduler(t *testing.T) {
	var s FrameScheduler
	n := 0
	var again func()
	again = func() {
		n++
		if n < 3 {
			s.AfterFunc(0, again)
		}
	}
	s.AfterFunc(0, again)
	stopped := s.AfterFunc(0, func() { t.Error("stopped timer fired") })
	if !stopped.Stop() {
		t.Error("Stop on a pending timer = false")
	}
	if rounds := s.Run(10); rounds != 3 || n != 3 {
		t.Errorf("Run = %d rounds, %d calls, want 3, 3", rounds, n)
	}
}
