package fx

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	dotRadius = 16.0 // scene radius of the shared particle texture at native quality

	sparkleInterval = 6 // ticks between sparkle tint changes

	collectorSpeed      = 8.0
	collectorEpsilon    = 4.0
	collectorLifeMargin = 30
	collectorBurstCount = 12

	trailLifeFactor  = 0.3
	trailSizeFactor  = 0.5
	trailSpeedFactor = 0.3
)

// BurstOptions shape a radial burst. Zero Size, Life or Speed fall back to
// DefaultBurstOptions; Gravity is used as given.
type BurstOptions struct {
	Size    float64 // particle radius in pixels
	Life    float64 // ticks
	Speed   float64 // minimum pixels per tick; each particle gets [Speed, 2*Speed)
	Gravity float64 // added to vy every tick
	Sparkle bool
	Trail   bool
}

// DefaultBurstOptions returns the options used for collector arrivals.
func DefaultBurstOptions() BurstOptions {
	return BurstOptions{Size: 4, Life: 60, Speed: 3, Gravity: 0.1}
}

// Emitter spawns and advances every transient particle effect. All spawns
// are bounded by the monitor's particle budget and silently truncated.
type Emitter struct {
	mon      *Monitor
	settings *AdaptiveSettings
	arena    *particleArena
	rng      *rand.Rand

	root    *Node
	effects *Node // rings and bolts
	layer   *Node // arena particles

	dots     *textureCache
	imgOp    ebiten.DrawImageOptions
	rings    []*RingWave
	bolts    []*LightningBolt
	vortices []*Vortex

	tick      uint64
	destroyed bool
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithSeed makes particle randomness reproducible.
func WithSeed(seed uint64) EmitterOption {
	return func(e *Emitter) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

// NewEmitter creates an emitter drawing under root. The particle arena has
// room for the particle ceiling; the monitor's current MaxParticles bounds
// how much of it is used.
func NewEmitter(root *Node, mon *Monitor, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		mon:      mon,
		settings: mon.Settings(),
		arena:    newParticleArena(MaxParticles),
		root:     root,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.effects = NewContainer("fx_effects")
	e.layer = newParticleLayer("fx_particles", e)
	if root != nil {
		root.AddChild(e.effects)
		root.AddChild(e.layer)
	}
	e.dots = newTextureCache(falloffSmooth, 1, mon)
	mon.track(EffectParticle, e.LiveCount)
	return e
}

// LiveCount returns the number of live particles, including vortex members.
func (e *Emitter) LiveCount() int {
	return e.arena.len()
}

// EffectCount returns the number of live ring waves, bolts and vortices.
func (e *Emitter) EffectCount() int {
	return len(e.rings) + len(e.bolts) + len(e.vortices)
}

// Particle returns a snapshot of the particle addressed by h.
func (e *Emitter) Particle(h ParticleHandle) (ParticleState, bool) {
	p, ok := e.arena.get(h)
	if !ok {
		return ParticleState{}, false
	}
	return p.state(), true
}

// Snapshot returns every live particle in creation order.
func (e *Emitter) Snapshot() []ParticleState {
	out := make([]ParticleState, 0, e.arena.len())
	for _, idx := range e.arena.live {
		out = append(out, e.arena.slots[idx].state())
	}
	return out
}

// budget truncates a request to the remaining particle capacity.
func (e *Emitter) budget(want int) int {
	if e.destroyed || want <= 0 {
		return 0
	}
	n := min(want, e.mon.Remaining(EffectParticle), e.arena.available())
	if n < want {
		logger.Debug("particle request truncated", "want", want, "got", n)
	}
	return max(n, 0)
}

// SpawnBurst places count particles at origin with evenly spaced angles and
// per-particle speeds in [Speed, 2*Speed). With Trail set, each particle
// also spawns a smaller short-lived trail particle immediately.
func (e *Emitter) SpawnBurst(origin Vec2, c Color, count int, opts BurstOptions) []ParticleHandle {
	def := DefaultBurstOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.Life <= 0 {
		opts.Life = def.Life
	}
	if opts.Speed <= 0 {
		opts.Speed = def.Speed
	}

	n := e.budget(count)
	if n == 0 {
		return nil
	}
	handles := make([]ParticleHandle, 0, n)
	step := 2 * math.Pi / float64(n)
	size := opts.Size * e.settings.ParticleSize
	for i := 0; i < n; i++ {
		p, h, _ := e.arena.alloc()
		angle := step * float64(i)
		speed := opts.Speed + e.rng.Float64()*opts.Speed
		p.x, p.y = origin.X, origin.Y
		p.vx = math.Cos(angle) * speed
		p.vy = math.Sin(angle) * speed
		p.rotSpeed = (e.rng.Float64() - 0.5) * 0.4
		p.size = size
		p.scaleVel = -0.5 / opts.Life
		p.life, p.maxLife = opts.Life, opts.Life
		p.gravity = opts.Gravity
		p.tint, p.base = c, c
		if opts.Sparkle {
			p.flags |= flagSparkle
		}
		handles = append(handles, h)
	}

	if opts.Trail {
		trails := e.budget(n)
		for i := 0; i < trails; i++ {
			src := e.arena.slots[handles[i].index]
			p, _, _ := e.arena.alloc()
			p.x, p.y = origin.X, origin.Y
			p.vx = src.vx * trailSpeedFactor
			p.vy = src.vy * trailSpeedFactor
			p.size = size * trailSizeFactor
			life := math.Max(1, math.Round(opts.Life*trailLifeFactor))
			p.life, p.maxLife = life, life
			p.gravity = opts.Gravity * trailSpeedFactor
			p.tint, p.base = c.WithAlpha(c.A*0.7), c
			p.flags |= flagTrail
		}
	}
	return handles
}

// SpawnTrailParticle adds count short-lived, slow decorative particles.
func (e *Emitter) SpawnTrailParticle(origin Vec2, c Color, count int) []ParticleHandle {
	n := e.budget(count)
	handles := make([]ParticleHandle, 0, n)
	for i := 0; i < n; i++ {
		p, h, _ := e.arena.alloc()
		p.x = origin.X + (e.rng.Float64()-0.5)*4
		p.y = origin.Y + (e.rng.Float64()-0.5)*4
		p.vx = (e.rng.Float64() - 0.5) * 1
		p.vy = (e.rng.Float64() - 0.5) * 1
		p.size = 2 * e.settings.ParticleSize
		life := 20 + float64(e.rng.IntN(11))
		p.life, p.maxLife = life, life
		p.gravity = -0.02
		p.scaleVel = -0.5 / life
		p.tint, p.base = c, c
		p.flags |= flagTrail
		handles = append(handles, h)
	}
	return handles
}

// SpawnCollector launches a single homing particle from origin toward target
// at constant speed. On arrival it bursts at target and is removed.
// Concurrent collectors on the same target each burst independently.
func (e *Emitter) SpawnCollector(origin, target Vec2, c Color) ParticleHandle {
	return e.spawnCollector(origin, target, nil, c)
}

// SpawnCollectorTo is SpawnCollector aimed at a node's current world
// position. If the node is disposed before arrival the particle stops homing
// and decays by its life counter.
func (e *Emitter) SpawnCollectorTo(origin Vec2, target *Node, c Color) ParticleHandle {
	if target == nil || target.IsDisposed() {
		return ParticleHandle{}
	}
	wp := target.WorldPosition()
	lx, ly := wp.X, wp.Y
	if e.layer != nil && e.layer.Parent != nil {
		lx, ly = e.layer.WorldToLocal(wp.X, wp.Y)
	}
	return e.spawnCollector(origin, Vec2{lx, ly}, target, c)
}

func (e *Emitter) spawnCollector(origin, target Vec2, ref *Node, c Color) ParticleHandle {
	if e.budget(1) == 0 {
		return ParticleHandle{}
	}
	p, h, _ := e.arena.alloc()
	d := target.Sub(origin)
	dist := d.Len()
	p.x, p.y = origin.X, origin.Y
	if dist > 0 {
		p.vx = d.X / dist * collectorSpeed
		p.vy = d.Y / dist * collectorSpeed
	}
	p.size = 5 * e.settings.ParticleSize
	life := math.Ceil(dist/collectorSpeed) + collectorLifeMargin
	p.life, p.maxLife = life, life
	p.tint, p.base = c, c
	p.flags |= flagHoming
	p.target = target
	p.targetRef = ref
	return h
}

// arrival is a collector that reached its target during Update.
type arrival struct {
	at    Vec2
	color Color
}

// Update advances every particle and effect by one tick. Live particles are
// visited in reverse index order so removal is safe in place.
func (e *Emitter) Update() {
	if e.destroyed {
		return
	}
	e.tick++
	e.cullToBudget()

	for _, v := range e.vortices {
		v.advance()
	}

	var arrivals []arrival
	a := e.arena
	for i := len(a.live) - 1; i >= 0; i-- {
		p := &a.slots[a.live[i]]

		p.vy += p.gravity
		p.x += p.vx
		p.y += p.vy
		p.rotation += p.rotSpeed
		p.life--
		if p.life < 0 {
			p.life = 0
		}
		p.scale += p.scaleVel
		if p.scale < 0 {
			p.scale = 0
		}

		if p.flags&flagSparkle != 0 && e.tick%sparkleInterval == 0 {
			p.tint = e.sparkleTint(p.base)
		}

		if p.flags&flagHoming != 0 {
			if p.targetRef != nil && p.targetRef.IsDisposed() {
				p.flags &^= flagHoming
				p.targetRef = nil
			} else if math.Hypot(p.target.X-p.x, p.target.Y-p.y) <= math.Max(collectorEpsilon, collectorSpeed/2) {
				arrivals = append(arrivals, arrival{at: p.target, color: p.base})
				a.removeAt(i)
				continue
			}
		}

		if p.life <= 0 || p.alpha() <= 0 {
			a.removeAt(i)
		}
	}

	for _, arr := range arrivals {
		opts := DefaultBurstOptions()
		opts.Sparkle = true
		e.SpawnBurst(arr.at, arr.color, collectorBurstCount, opts)
	}

	e.updateEffects()
}

// cullToBudget removes the oldest particles when the monitor has lowered
// MaxParticles below the live count.
func (e *Emitter) cullToBudget() {
	excess := e.arena.len() - e.settings.MaxParticles
	for ; excess > 0; excess-- {
		e.arena.removeAt(0)
	}
}

// sparkleTint returns base with a random brightness shift toward white.
func (e *Emitter) sparkleTint(base Color) Color {
	f := 0.7 + e.rng.Float64()*0.6
	w := e.rng.Float64() * 0.4
	return Color{
		R: clamp01(lerp(base.R*f, 1, w)),
		G: clamp01(lerp(base.G*f, 1, w)),
		B: clamp01(lerp(base.B*f, 1, w)),
		A: base.A,
	}
}

// draw renders live particles in creation order with the layer transform.
func (e *Emitter) draw(ds *drawState, world [6]float64, alpha float64) {
	op := &e.imgOp
	dot := e.dots.get(dotRadius)
	r := float64(dot.Bounds().Dx()) / 2
	var g ebiten.GeoM
	setGeoM(&g, world)
	for _, idx := range e.arena.live {
		p := &e.arena.slots[idx]
		a := p.alpha() * p.tint.A * alpha
		if a <= 0 || p.scale <= 0 {
			continue
		}
		x, y := p.x, p.y
		if p.group != nil {
			x, y = p.group.place(x, y)
		}
		s := p.size * p.scale / r
		op.GeoM.Reset()
		op.GeoM.Translate(-r, -r)
		op.GeoM.Scale(s, s)
		op.GeoM.Rotate(p.rotation)
		op.GeoM.Translate(x, y)
		op.GeoM.Concat(g)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(p.tint.R*a), float32(p.tint.G*a), float32(p.tint.B*a), float32(a))
		op.Blend = BlendAdd.EbitenBlend()
		op.Filter = ebiten.FilterLinear
		ds.dst.DrawImage(dot, op)
	}
}

// Clear removes every particle and effect. Idempotent.
func (e *Emitter) Clear() {
	e.arena.reset()
	for _, r := range e.rings {
		r.dispose()
	}
	for _, b := range e.bolts {
		b.dispose()
	}
	e.rings = e.rings[:0]
	e.bolts = e.bolts[:0]
	e.vortices = e.vortices[:0]
}

// Destroy clears the emitter and detaches its nodes from the host root.
func (e *Emitter) Destroy() {
	if e.destroyed {
		return
	}
	e.Clear()
	e.destroyed = true
	e.effects.Dispose()
	e.layer.Dispose()
	e.dots.dispose()
}
