package fx

// particleFlags are per-particle behavior switches.
type particleFlags uint8

const (
	flagSparkle particleFlags = 1 << iota // tint re-randomized periodically
	flagTrail                             // decorative trail particle
	flagHoming                            // converges on target, bursts on arrival
)

// particle holds per-particle simulation state. Unexported; managed by
// particleArena and Emitter. Life counts update ticks.
type particle struct {
	x, y      float64
	vx, vy    float64
	rotation  float64
	rotSpeed  float64
	scale     float64
	scaleVel  float64
	size      float64 // radius in pixels at scale 1
	life      float64
	maxLife   float64
	gravity   float64
	tint      Color
	base      Color
	flags     particleFlags
	target    Vec2
	targetRef *Node // optional moving target; nil for fixed points
	group     *vortexGroup

	gen  uint32
	live bool
}

// alpha is derived from the life counter, never stored.
func (p *particle) alpha() float64 {
	if p.maxLife <= 0 {
		return 0
	}
	return clamp01(p.life / p.maxLife)
}

// ParticleHandle addresses an arena slot. A handle goes stale once its
// particle is removed; lookups with a stale handle report false.
type ParticleHandle struct {
	index uint32
	gen   uint32
}

// Valid reports whether the handle was issued by a spawn (not the zero value).
func (h ParticleHandle) Valid() bool {
	return h.gen != 0
}

// ParticleState is a read-only snapshot of one live particle.
type ParticleState struct {
	X, Y     float64
	VX, VY   float64
	Rotation float64
	Scale    float64
	Life     float64
	MaxLife  float64
	Alpha    float64
	Tint     Color
	Homing   bool
	Trail    bool
}

func (p *particle) state() ParticleState {
	return ParticleState{
		X:        p.x,
		Y:        p.y,
		VX:       p.vx,
		VY:       p.vy,
		Rotation: p.rotation,
		Scale:    p.scale,
		Life:     p.life,
		MaxLife:  p.maxLife,
		Alpha:    p.alpha(),
		Tint:     p.tint,
		Homing:   p.flags&flagHoming != 0,
		Trail:    p.flags&flagTrail != 0,
	}
}

// particleArena is a fixed-capacity pool of particle slots. Free slots are
// recycled through a stack; live slots are kept in creation order so drawing
// follows painter's order.
type particleArena struct {
	slots []particle
	free  []uint32
	live  []uint32
}

// newParticleArena creates an arena with a preallocated pool.
func newParticleArena(capacity int) *particleArena {
	if capacity <= 0 {
		capacity = MaxParticles
	}
	a := &particleArena{
		slots: make([]particle, capacity),
		free:  make([]uint32, capacity),
		live:  make([]uint32, 0, capacity),
	}
	// Pop order hands out low indices first.
	for i := range a.free {
		a.free[i] = uint32(capacity - 1 - i)
	}
	return a
}

// alloc claims a free slot, zeroes it, and appends it to the live list.
func (a *particleArena) alloc() (*particle, ParticleHandle, bool) {
	if len(a.free) == 0 {
		return nil, ParticleHandle{}, false
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	p := &a.slots[idx]
	gen := p.gen + 1
	if gen == 0 {
		gen = 1
	}
	*p = particle{gen: gen, live: true, scale: 1}
	a.live = append(a.live, idx)
	return p, ParticleHandle{index: idx, gen: gen}, true
}

// removeAt releases the particle at position i of the live list, preserving
// the order of the rest. Safe while iterating the live list in reverse.
func (a *particleArena) removeAt(i int) {
	idx := a.live[i]
	copy(a.live[i:], a.live[i+1:])
	a.live = a.live[:len(a.live)-1]

	p := &a.slots[idx]
	if p.group != nil {
		p.group.members--
	}
	p.live = false
	p.group = nil
	p.targetRef = nil
	a.free = append(a.free, idx)
}

// get resolves a handle to its live particle.
func (a *particleArena) get(h ParticleHandle) (*particle, bool) {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	p := &a.slots[h.index]
	if !p.live || p.gen != h.gen {
		return nil, false
	}
	return p, true
}

// len returns the number of live particles.
func (a *particleArena) len() int {
	return len(a.live)
}

// available returns the number of free slots.
func (a *particleArena) available() int {
	return len(a.free)
}

// reset releases every live particle.
func (a *particleArena) reset() {
	for i := len(a.live) - 1; i >= 0; i-- {
		a.removeAt(i)
	}
}
