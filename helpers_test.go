package gridview

import (
	"slices"
	"sync"
	"time"

	"github.com/gogpu/gridview/gpucore"
)

// manualScheduler fires timers only when Fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	t := &manualTimer{f: f}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()
	return t
}

// Fire runs every live timer scheduled so far and returns how many ran.
func (s *manualScheduler) Fire() int {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	n := 0
	for _, t := range p {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.f()
		n++
	}
	return n
}

// Run fires until nothing is scheduled or limit rounds pass.
func (s *manualScheduler) Run(limit int) int {
	rounds := 0
	for rounds < limit && s.Fire() > 0 {
		rounds++
	}
	return rounds
}

// fakeBackend records what the grid uploads.
type fakeBackend struct {
	cfg        gpucore.SurfaceConfig
	configured int
	data       []float32
	focus      []uint32
	selection  []uint32
	viewports  [][4]float32
	frame      gpucore.FrameUniforms
	index      gpucore.IndexUniforms
	draws      gpucore.DrawSet
	executed   int
	destroyed  int
	calls      []string
	failExec   error
}

func (b *fakeBackend) Configure(cfg gpucore.SurfaceConfig) error {
	b.cfg = cfg
	b.configured++
	b.calls = append(b.calls, "configure")
	return nil
}

func (b *fakeBackend) UpdateDataBufferStorage(values []float32) error {
	b.data = slices.Clone(values)
	b.calls = append(b.calls, "data")
	return nil
}

func (b *fakeBackend) UpdateFocusedCellPositionStorage(focus []uint32) error {
	b.focus = slices.Clone(focus)
	b.calls = append(b.calls, "focus")
	return nil
}

func (b *fakeBackend) UpdateSelectedStateStorage(words []uint32) error {
	b.selection = slices.Clone(words)
	b.calls = append(b.calls, "selection")
	return nil
}

func (b *fakeBackend) UpdateViewportStateStorage(rects [][4]float32) error {
	b.viewports = slices.Clone(rects)
	b.calls = append(b.calls, "viewports")
	return nil
}

func (b *fakeBackend) UpdateFrame(frame *gpucore.FrameUniforms, index *gpucore.IndexUniforms, draws *gpucore.DrawSet) error {
	b.frame, b.index, b.draws = *frame, *index, *draws
	b.calls = append(b.calls, "frame")
	return nil
}

func (b *fakeBackend) Execute() error {
	b.executed++
	b.calls = append(b.calls, "execute")
	return b.failExec
}

func (b *fakeBackend) Destroy() {
	b.destroyed++
}

func (b *fakeBackend) reset() {
	b.calls = nil
	b.executed = 0
}
