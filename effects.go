package fx

import (
	"math"
)

const (
	ringStagger = 5 // ticks between consecutive ring activations

	vortexParticles = 30
	vortexTurns     = 2.0
	vortexSpinStart = 0.02 // radians per tick
	vortexSpinEnd   = 0.3
	vortexGrowth    = 1.0 // extra scale reached at the end

	boltSegments = 12
	boltLife     = 24 // ticks
	boltBlink    = 3  // ticks per visibility phase
)

// RingOptions shape SpawnRingWave. Zero fields take defaults
// (3 rings, thickness 3, 40 ticks, expand 2).
type RingOptions struct {
	Rings       int
	Thickness   float64
	Duration    int     // ticks each ring takes to expand and fade
	ExpandSpeed float64 // final scale is 1+ExpandSpeed
}

// RingWave is a set of concentric expanding, fading rings. Ring i starts
// 5*i ticks after spawn and reaches alpha 0 Duration ticks later.
type RingWave struct {
	nodes    []*Node
	age      int
	duration int
	expand   float64
	done     bool
}

// SpawnRingWave adds concentric rings at origin. Returns nil when the
// particle budget is exhausted.
func (e *Emitter) SpawnRingWave(origin Vec2, radius float64, c Color, opts RingOptions) *RingWave {
	if e.destroyed || !e.mon.CanAddEffect(EffectParticle) {
		return nil
	}
	if opts.Rings <= 0 {
		opts.Rings = 3
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 3
	}
	if opts.Duration <= 0 {
		opts.Duration = 40
	}
	if opts.ExpandSpeed <= 0 {
		opts.ExpandSpeed = 2
	}
	w := &RingWave{duration: opts.Duration, expand: opts.ExpandSpeed}
	for i := 0; i < opts.Rings; i++ {
		n := NewRing("fx_ring", radius, opts.Thickness, c)
		n.X, n.Y = origin.X, origin.Y
		n.Visible = false
		e.effects.AddChild(n)
		w.nodes = append(w.nodes, n)
	}
	e.rings = append(e.rings, w)
	return w
}

// progress returns ring i's animation progress in [0, 1], or -1 before its
// delay has elapsed.
func (w *RingWave) progress(i int) float64 {
	t := w.age - ringStagger*i
	if t <= 0 {
		return -1
	}
	return math.Min(1, float64(t)/float64(w.duration))
}

// advance steps every ring by one tick.
func (w *RingWave) advance() {
	w.age++
	finished := 0
	for i, n := range w.nodes {
		p := w.progress(i)
		if p < 0 {
			continue
		}
		n.Visible = p < 1
		n.Alpha = 1 - p
		n.ScaleX = 1 + w.expand*p
		n.ScaleY = n.ScaleX
		if p >= 1 {
			finished++
		}
	}
	if finished == len(w.nodes) {
		w.dispose()
	}
}

func (w *RingWave) dispose() {
	for _, n := range w.nodes {
		n.Dispose()
	}
	w.done = true
}

// Rings returns the number of rings in the wave.
func (w *RingWave) Rings() int { return len(w.nodes) }

// RingAlpha returns ring i's current alpha (1 until it activates).
func (w *RingWave) RingAlpha(i int) float64 {
	p := w.progress(i)
	if p < 0 {
		return 1
	}
	return 1 - p
}

// RingScale returns ring i's current scale factor.
func (w *RingWave) RingScale(i int) float64 {
	p := w.progress(i)
	if p < 0 {
		return 1
	}
	return 1 + w.expand*p
}

// Active reports whether ring i has started its animation.
func (w *RingWave) Active(i int) bool { return w.progress(i) >= 0 }

// Done reports whether every ring has faded out and been detached.
func (w *RingWave) Done() bool { return w.done }

// vortexGroup is the rotating container shared by a vortex's particles.
type vortexGroup struct {
	origin   Vec2
	rotation float64
	spin     float64
	scale    float64
	age      int
	duration int
	members  int
}

// place maps a member's spiral-local position into emitter space.
func (g *vortexGroup) place(x, y float64) (float64, float64) {
	sin, cos := math.Sincos(g.rotation)
	x *= g.scale
	y *= g.scale
	return g.origin.X + x*cos - y*sin, g.origin.Y + x*sin + y*cos
}

// Vortex is a spiral of particles spinning faster and spreading outward
// while fading over its duration.
type Vortex struct {
	group *vortexGroup
}

// SpawnVortex places up to 30 particles along a spiral around origin.
// Members fade linearly to zero over duration ticks.
func (e *Emitter) SpawnVortex(origin Vec2, radius float64, c Color, duration int) *Vortex {
	if duration <= 0 {
		duration = 90
	}
	n := e.budget(vortexParticles)
	if n == 0 {
		return nil
	}
	g := &vortexGroup{origin: origin, spin: vortexSpinStart, scale: 1, duration: duration}
	size := 3 * e.settings.ParticleSize
	for i := 0; i < n; i++ {
		p, _, _ := e.arena.alloc()
		t := float64(i+1) / float64(n)
		angle := t * vortexTurns * 2 * math.Pi
		r := radius * t
		p.x = math.Cos(angle) * r
		p.y = math.Sin(angle) * r
		p.size = size
		p.life, p.maxLife = float64(duration), float64(duration)
		p.tint, p.base = c, c
		p.group = g
		g.members++
	}
	v := &Vortex{group: g}
	e.vortices = append(e.vortices, v)
	return v
}

// advance grows spin and scale linearly with age.
func (v *Vortex) advance() {
	g := v.group
	g.age++
	t := math.Min(1, float64(g.age)/float64(g.duration))
	g.spin = lerp(vortexSpinStart, vortexSpinEnd, t)
	g.rotation += g.spin
	g.scale = 1 + vortexGrowth*t
}

// Members returns the number of live particles in the vortex.
func (v *Vortex) Members() int { return v.group.members }

// Rotation returns the container rotation in radians.
func (v *Vortex) Rotation() float64 { return v.group.rotation }

// Scale returns the container scale.
func (v *Vortex) Scale() float64 { return v.group.scale }

// Done reports whether every member particle has been removed.
func (v *Vortex) Done() bool { return v.group.members <= 0 }

// LightningBolt is a jittered zigzag between two points that blinks for a
// short fixed lifespan.
type LightningBolt struct {
	node *Node
	age  int
	done bool
}

// SpawnLightningBolt draws a bolt from start to end. Interior points are
// offset perpendicular to the line by at most max(4, length/8) pixels.
func (e *Emitter) SpawnLightningBolt(start, end Vec2, c Color) *LightningBolt {
	if e.destroyed || !e.mon.CanAddEffect(EffectParticle) {
		return nil
	}
	d := end.Sub(start)
	length := d.Len()
	jitter := math.Max(4, length/8)
	var nx, ny float64
	if length > 0 {
		nx, ny = -d.Y/length, d.X/length
	}

	points := make([]Vec2, boltSegments+1)
	for i := 0; i <= boltSegments; i++ {
		t := float64(i) / boltSegments
		x := lerp(start.X, end.X, t)
		y := lerp(start.Y, end.Y, t)
		if i > 0 && i < boltSegments {
			off := (e.rng.Float64()*2 - 1) * jitter
			x += nx * off
			y += ny * off
		}
		points[i] = Vec2{x, y}
	}

	n := NewPolyline("fx_bolt", points, 3, c)
	n.BlendMode = BlendAdd
	core := NewPolyline("fx_bolt_core", points, 1, ColorWhite)
	n.AddChild(core)
	e.effects.AddChild(n)

	b := &LightningBolt{node: n}
	e.bolts = append(e.bolts, b)
	return b
}

// advance toggles visibility every boltBlink ticks until the lifespan ends.
func (b *LightningBolt) advance() {
	b.age++
	if b.age >= boltLife {
		b.dispose()
		return
	}
	if (b.age/boltBlink)%2 == 0 {
		b.node.Alpha = 1
	} else {
		b.node.Alpha = 0
	}
}

func (b *LightningBolt) dispose() {
	b.node.Dispose()
	b.done = true
}

// Points returns the bolt's polyline in emitter space.
func (b *LightningBolt) Points() []Vec2 {
	if b.node == nil {
		return nil
	}
	return b.node.Points
}

// Visible reports whether the bolt is in a lit blink phase.
func (b *LightningBolt) Visible() bool { return !b.done && b.node.Alpha > 0 }

// Done reports whether the bolt has expired.
func (b *LightningBolt) Done() bool { return b.done }

// updateEffects advances rings, bolts and vortices and drops finished ones.
func (e *Emitter) updateEffects() {
	rings := e.rings[:0]
	for _, r := range e.rings {
		r.advance()
		if !r.done {
			rings = append(rings, r)
		}
	}
	clear(e.rings[len(rings):])
	e.rings = rings

	bolts := e.bolts[:0]
	for _, b := range e.bolts {
		b.advance()
		if !b.done {
			bolts = append(bolts, b)
		}
	}
	clear(e.bolts[len(bolts):])
	e.bolts = bolts

	vortices := e.vortices[:0]
	for _, v := range e.vortices {
		if !v.Done() {
			vortices = append(vortices, v)
		}
	}
	clear(e.vortices[len(vortices):])
	e.vortices = vortices
}
