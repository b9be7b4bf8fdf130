package gridview

import (
	"math"
	"sync"
	"time"
)

// Inertia defaults.
const (
	DefaultTickInterval       = 16 * time.Millisecond
	DefaultOverscrollFriction = 0.975
	DefaultOverscrollEpsilon  = 0.1 // pixels
	DefaultVelocityFriction   = 0.8
	DefaultVelocityEpsilon    = 0.01 // cells per tick
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The default uses time.AfterFunc; tests and
// hosts that own a frame loop supply their own.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the runtime timer.
var SystemScheduler Scheduler = timeScheduler{}

// ticker re-runs step every interval until step reports no more motion.
// Start and Stop are idempotent.
type ticker struct {
	mu       sync.Mutex
	sched    Scheduler
	interval time.Duration
	step     func() bool
	timer    Timer
	gen      uint64
}

func newTicker(sched Scheduler, interval time.Duration, step func() bool) *ticker {
	if sched == nil {
		sched = SystemScheduler
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &ticker{sched: sched, interval: interval, step: step}
}

// Start schedules the next tick unless one is pending.
func (t *ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		return
	}
	t.scheduleLocked()
}

func (t *ticker) scheduleLocked() {
	gen := t.gen
	t.timer = t.sched.AfterFunc(t.interval, func() { t.fire(gen) })
}

// Stop cancels the pending tick. A tick already running finishes but does
// not reschedule.
func (t *ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Running reports whether a tick is pending.
func (t *ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *ticker) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	more := t.step()

	t.mu.Lock()
	defer t.mu.Unlock()
	if more && gen == t.gen && t.timer == nil {
		t.scheduleLocked()
	}
}

// InertiaOptions tunes Model.Inertia.
type InertiaOptions struct {
	VelocityFriction float64
	VelocityEpsilon  float64
}

// Inertia advances the model by one tick. Overscroll decays first, then
// velocity decays and snaps to zero, then the viewport moves by the decayed
// velocity through Regulate. An axis that is already overscrolled drops
// velocity pointing further out and never gains overscroll, so a release past
// an edge only springs back. The result reports whether anything is still
// moving.
func (m *Model) Inertia(cellSize Vec2, opts InertiaOptions) bool {
	ro := RegulateOptions{Friction: m.Friction, Epsilon: m.Epsilon}
	decayed := V2(decay(m.Overscroll.X, ro), decay(m.Overscroll.Y, ro))

	v := m.Velocity.Mul(opts.VelocityFriction)
	for _, axis := range [...]Axis{AxisX, AxisY} {
		c := v.Axis(axis)
		if math.Abs(c) < opts.VelocityEpsilon || outward(m.Overscroll.Axis(axis), c) {
			v = v.WithAxis(axis, 0)
		}
	}
	m.Velocity = v

	held := m.Overscroll
	m.Regulate(cellSize, m.Rect.Translate(v), true)
	for _, axis := range [...]Axis{AxisX, AxisY} {
		if held.Axis(axis) == 0 {
			continue
		}
		if over, limit := m.Overscroll.Axis(axis), decayed.Axis(axis); math.Abs(over) > math.Abs(limit) {
			m.Overscroll = m.Overscroll.WithAxis(axis, limit)
		}
	}
	return m.Moving()
}

// outward reports whether velocity v pushes further in the direction of
// overscroll over.
func outward(over, v float64) bool {
	return over != 0 && v != 0 && (over < 0) == (v < 0)
}

// Moving reports whether overscroll or velocity is non-zero.
func (m *Model) Moving() bool {
	return !m.Overscroll.IsZero() || !m.Velocity.IsZero()
}
