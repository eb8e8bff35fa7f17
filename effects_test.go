package fx

import (
	"math"
	"testing"
)

func TestRingWaveScenario(t *testing.T) {
	e, _, _ := newTestEmitter(t)
	w := e.SpawnRingWave(Vec2{200, 200}, 60, ColorFromHex(0x64B5F6), RingOptions{
		Rings: 4, Thickness: 4, Duration: 50, ExpandSpeed: 3,
	})
	if w == nil || w.Rings() != 4 {
		t.Fatalf("ring wave = %v, want 4 rings", w)
	}
	if e.EffectCount() != 1 {
		t.Errorf("EffectCount = %d, want 1", e.EffectCount())
	}

	for tick := 1; tick <= 65; tick++ {
		e.Update()
		for i := 0; i < 4; i++ {
			start := 5 * i
			switch {
			case tick <= start:
				if w.Active(i) {
					t.Fatalf("tick %d: ring %d active before its delay", tick, i)
				}
				assertNear(t, "waiting alpha", w.RingAlpha(i), 1)
			case tick < start+50:
				a := w.RingAlpha(i)
				if a <= 0 || a >= 1 {
					t.Fatalf("tick %d: ring %d alpha %v, want (0, 1)", tick, i, a)
				}
			default:
				assertNear(t, "faded alpha", w.RingAlpha(i), 0)
				assertNear(t, "final scale", w.RingScale(i), 4)
			}
		}
		if tick < 65 && w.Done() {
			t.Fatalf("tick %d: wave done early", tick)
		}
	}
	if !w.Done() {
		t.Error("wave should be done once the last ring faded")
	}
	if e.EffectCount() != 0 {
		t.Errorf("EffectCount = %d after the wave finished", e.EffectCount())
	}
}

func TestRingWaveDefaults(t *testing.T) {
	e, _, _ := newTestEmitter(t)
	w := e.SpawnRingWave(Vec2{}, 10, ColorWhite, RingOptions{})
	if w.Rings() != 3 {
		t.Errorf("Rings = %d, want 3", w.Rings())
	}
	e.Update()
	assertNear(t, "ring 0 scale", w.RingScale(0), 1+2.0/40)
}

func TestVortexSpinsAndFades(t *testing.T) {
	e, _, _ := newTestEmitter(t)
	v := e.SpawnVortex(Vec2{100, 100}, 50, ColorWhite, 60)
	if v == nil || v.Members() != vortexParticles {
		t.Fatalf("vortex members = %v, want %d", v, vortexParticles)
	}
	if e.LiveCount() != vortexParticles {
		t.Errorf("live = %d, want %d", e.LiveCount(), vortexParticles)
	}

	prevRot, prevSpin := v.Rotation(), 0.0
	for tick := 1; tick <= 30; tick++ {
		e.Update()
		spin := v.Rotation() - prevRot
		if spin <= prevSpin {
			t.Fatalf("tick %d: spin %v did not grow from %v", tick, spin, prevSpin)
		}
		prevRot, prevSpin = v.Rotation(), spin
	}
	assertNear(t, "half-way scale", v.Scale(), 1.5)
	for _, s := range e.Snapshot() {
		assertNear(t, "member alpha", s.Alpha, 0.5)
	}

	for tick := 31; tick <= 60; tick++ {
		e.Update()
	}
	if !v.Done() || e.LiveCount() != 0 {
		t.Errorf("vortex done=%v live=%d after its duration", v.Done(), e.LiveCount())
	}
	if e.EffectCount() != 0 {
		t.Errorf("EffectCount = %d", e.EffectCount())
	}
}

func TestVortexTruncatedByBudget(t *testing.T) {
	mon := NewMonitor(NoBackend())
	e := NewEmitter(NewContainer("root"), mon, WithSeed(3))
	e.SpawnBurst(Vec2{}, ColorWhite, 40, BurstOptions{Life: 200})
	v := e.SpawnVortex(Vec2{}, 20, ColorWhite, 60)
	if v == nil || v.Members() != 10 {
		t.Fatalf("members = %v, want 10", v)
	}
	if e.SpawnVortex(Vec2{}, 20, ColorWhite, 60) != nil {
		t.Error("vortex beyond budget should be rejected")
	}
}

func TestLightningBoltShape(t *testing.T) {
	e, _, _ := newTestEmitter(t)
	start, end := Vec2{0, 0}, Vec2{160, 0}
	b := e.SpawnLightningBolt(start, end, ColorWhite)
	pts := b.Points()
	if len(pts) != boltSegments+1 {
		t.Fatalf("points = %d, want %d", len(pts), boltSegments+1)
	}
	if pts[0] != start || pts[len(pts)-1] != end {
		t.Errorf("endpoints = %v, %v", pts[0], pts[len(pts)-1])
	}
	jitter := math.Max(4, 160.0/8)
	for i, p := range pts {
		assertNearTol(t, "x", p.X, 160*float64(i)/boltSegments, 1e-9)
		if math.Abs(p.Y) > jitter {
			t.Errorf("point %d offset %v exceeds %v", i, p.Y, jitter)
		}
	}
}

func TestLightningBoltBlinksThenExpires(t *testing.T) {
	e, _, root := newTestEmitter(t)
	b := e.SpawnLightningBolt(Vec2{}, Vec2{0, 100}, ColorWhite)
	effects := root.Children()[0]
	if effects.NumChildren() != 1 {
		t.Fatalf("effects children = %d, want 1", effects.NumChildren())
	}

	e.Update() // age 1
	if !b.Visible() {
		t.Error("bolt should be lit at age 1")
	}
	e.Update()
	e.Update() // age 3
	if b.Visible() {
		t.Error("bolt should be dark at age 3")
	}
	for i := 3; i < boltLife; i++ {
		e.Update()
	}
	if !b.Done() || b.Visible() {
		t.Errorf("bolt done=%v visible=%v after its lifespan", b.Done(), b.Visible())
	}
	if effects.NumChildren() != 0 {
		t.Error("expired bolt should detach")
	}
}
