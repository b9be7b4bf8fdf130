package gridview

import (
	"math"
	"testing"
)

func TestTickerStopsWhenStepSettles(t *testing.T) {
	sched := &manualScheduler{}
	steps := 0
	tk := newTicker(sched, 0, func() bool {
		steps++
		return steps < 3
	})

	tk.Start()
	tk.Start() // idempotent
	if !tk.Running() {
		t.Fatal("expected running after Start")
	}
	if got := sched.Run(10); got != 3 {
		t.Errorf("rounds = %d, want 3", got)
	}
	if steps != 3 {
		t.Errorf("steps = %d, want 3", steps)
	}
	if tk.Running() {
		t.Error("ticker still running after settling")
	}
}

func TestTickerStop(t *testing.T) {
	sched := &manualScheduler{}
	steps := 0
	tk := newTicker(sched, 0, func() bool {
		steps++
		return true
	})
	tk.Start()
	sched.Fire()
	tk.Stop()
	tk.Stop()
	if sched.Run(5) != 0 {
		t.Error("timer fired after Stop")
	}
	if steps != 1 {
		t.Errorf("steps = %d, want 1", steps)
	}

	// restart after stop
	tk.Start()
	sched.Fire()
	if steps != 2 {
		t.Errorf("steps = %d, want 2 after restart", steps)
	}
	tk.Stop()
}

func TestTickerStopDuringStep(t *testing.T) {
	sched := &manualScheduler{}
	var tk *ticker
	tk = newTicker(sched, 0, func() bool {
		tk.Stop()
		return true
	})
	tk.Start()
	sched.Fire()
	if tk.Running() {
		t.Error("step that stopped the ticker was rescheduled")
	}
}

func TestModelInertiaDecays(t *testing.T) {
	m := Model{
		Grid:     GridSize{Columns: 1000, Rows: 1000},
		Rect:     Rect{100, 100, 200, 200},
		Velocity: V2(4, -2),
		Friction: DefaultOverscrollFriction,
		Epsilon:  DefaultOverscrollEpsilon,
	}
	opts := InertiaOptions{VelocityFriction: DefaultVelocityFriction, VelocityEpsilon: DefaultVelocityEpsilon}

	if !m.Inertia(V2(5, 5), opts) {
		t.Fatal("expected motion after first tick")
	}
	// velocity decays before it is applied
	if math.Abs(m.Rect.Left-103.2) > 1e-9 || math.Abs(m.Rect.Top-98.4) > 1e-9 {
		t.Errorf("Rect = %v, want moved by (3.2, -1.6)", m.Rect)
	}
	if !m.Velocity.Approx(V2(3.2, -1.6), 1e-12) {
		t.Errorf("Velocity = %v, want (3.2, -1.6)", m.Velocity)
	}

	ticks := 1
	for m.Inertia(V2(5, 5), opts) {
		ticks++
		if ticks > 100 {
			t.Fatal("inertia did not settle")
		}
	}
	if !m.Velocity.IsZero() || !m.Overscroll.IsZero() {
		t.Errorf("settled with velocity %v overscroll %v", m.Velocity, m.Overscroll)
	}
	// geometric series: 3.2 / (1 - 0.8) = 16 cells at most
	if m.Rect.Left <= 115 || m.Rect.Left > 116 {
		t.Errorf("Left = %v, want within (115, 116]", m.Rect.Left)
	}
}

func TestModelInertiaBouncesBack(t *testing.T) {
	m := Model{
		Grid:       GridSize{Columns: 16, Rows: 16},
		Rect:       Rect{0, 0, 8, 8},
		Overscroll: V2(-50, 0),
		Friction:   DefaultOverscrollFriction,
		Epsilon:    DefaultOverscrollEpsilon,
	}
	opts := InertiaOptions{VelocityFriction: DefaultVelocityFriction, VelocityEpsilon: DefaultVelocityEpsilon}
	prev := m.Overscroll.X
	ticks := 0
	for m.Inertia(V2(25, 25), opts) {
		if m.Overscroll.X < prev || m.Overscroll.X > 0 {
			t.Fatalf("overscroll %v not decaying toward zero from %v", m.Overscroll.X, prev)
		}
		prev = m.Overscroll.X
		ticks++
		if ticks > 1000 {
			t.Fatal("overscroll did not settle")
		}
	}
	if m.Overscroll.X != 0 {
		t.Errorf("Overscroll.X = %v, want 0", m.Overscroll.X)
	}
	if m.Rect != (Rect{0, 0, 8, 8}) {
		t.Errorf("Rect moved to %v", m.Rect)
	}
}

func TestModelInertiaNeverGrowsOverscroll(t *testing.T) {
	tests := []struct {
		name       string
		rect       Rect
		overscroll Vec2
		velocity   Vec2
	}{
		{"left edge fling out", Rect{0, 4, 8, 12}, V2(-50, 0), V2(-12.8, 0)},
		{"right edge fling out", Rect{8, 4, 16, 12}, V2(50, 0), V2(12.8, 0)},
		{"top edge fling out", Rect{4, 0, 12, 8}, V2(0, -50), V2(0, -12.8)},
		{"bottom edge fling out", Rect{4, 8, 12, 16}, V2(0, 50), V2(0, 12.8)},
		{"corner fling out", Rect{0, 0, 8, 8}, V2(-30, -20), V2(-5, -3)},
		{"left edge fling back in", Rect{0, 4, 8, 12}, V2(-50, 0), V2(2, 0)},
		{"outward along the other axis", Rect{0, 0, 8, 8}, V2(-40, 0), V2(0, -6)},
	}
	opts := InertiaOptions{VelocityFriction: DefaultVelocityFriction, VelocityEpsilon: DefaultVelocityEpsilon}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{
				Grid:       grid16,
				Rect:       tt.rect,
				Overscroll: tt.overscroll,
				Velocity:   tt.velocity,
				Friction:   DefaultOverscrollFriction,
				Epsilon:    DefaultOverscrollEpsilon,
			}
			prev := m.Overscroll
			for ticks := 0; m.Inertia(V2(12.5, 12.5), opts); ticks++ {
				if ticks > 1000 {
					t.Fatal("inertia did not settle")
				}
				for _, axis := range [...]Axis{AxisX, AxisY} {
					was, now := prev.Axis(axis), m.Overscroll.Axis(axis)
					if was != 0 && math.Abs(now) > math.Abs(was)*DefaultOverscrollFriction+1e-9 {
						t.Fatalf("tick %d: axis %d overscroll %v, was %v", ticks, axis, now, was)
					}
				}
				prev = m.Overscroll
			}
			if !m.Overscroll.IsZero() || !m.Velocity.IsZero() {
				t.Errorf("settled with overscroll %v velocity %v", m.Overscroll, m.Velocity)
			}
		})
	}
}
