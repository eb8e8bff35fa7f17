package fx

import (
	"math/rand/v2"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EngineOptions configure NewEngine. Zero values take defaults.
type EngineOptions struct {
	// Width and Height size the ambient light layer (default 1280x720).
	Width, Height int
	// Ambient is the base darkness of the light layer.
	Ambient float64
	// Capabilities overrides probing. When nil the engine probes Ebitengine,
	// which only reports a backend once the game loop is running.
	Capabilities *Capabilities
	// Assets and Symbols feed the sprite atlas. A nil Symbols uses the
	// embedded default set.
	Assets  AssetSource
	Symbols *SymbolSet
	// Seed makes particle and flicker randomness reproducible when non-zero.
	Seed uint64
	// PerfWidget adds the HUD widget on top of the scene.
	PerfWidget bool
	// Clock times the monitor's fps windows. Defaults to the wall clock.
	Clock func() time.Duration
}

// frameTask is a one-off per-frame animation owned by a node.
type frameTask struct {
	owner     *Node
	behavior  Behavior
	apply     func(v float64)
	cancelled bool
}

// Engine wires the monitor, emitter, lighting and sprite atlas to one host
// root and drives them from the host's frame clock. It re-exports the
// trigger surface used by reward logic.
type Engine struct {
	Root     *Node
	Monitor  *Monitor
	Emitter  *Emitter
	Lighting *Lighting
	Atlas    *SpriteAtlas

	perf      *PerfWidget
	tasks     []*frameTask
	rng       *rand.Rand
	destroyed bool
}

// NewEngine builds every component under root. Nothing here fails: missing
// backends and assets degrade quality and are logged.
func NewEngine(root *Node, opts EngineOptions) *Engine {
	if root == nil {
		root = NewContainer("fx_root")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	var caps Capabilities
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else {
		caps = Probe(EbitenProbe)
	}

	var emitterOpts []EmitterOption
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if opts.Seed != 0 {
		emitterOpts = append(emitterOpts, WithSeed(opts.Seed))
		rng = rand.New(rand.NewPCG(opts.Seed, ^opts.Seed))
	}

	symbols := DefaultSymbols()
	if opts.Symbols != nil {
		symbols = *opts.Symbols
	}

	mon := NewMonitor(caps, WithClock(opts.Clock))
	e := &Engine{
		Root:     root,
		Monitor:  mon,
		Lighting: NewLighting(root, mon, opts.Width, opts.Height, opts.Ambient),
		rng:      rng,
	}
	e.Emitter = NewEmitter(root, mon, emitterOpts...)
	e.Atlas = NewSpriteAtlas(root, mon, opts.Assets, symbols)
	e.Atlas.SetOverlayOrigin(float64(opts.Width)/2, float64(opts.Height)/2)
	if opts.PerfWidget {
		e.perf = NewPerfWidget(mon)
		root.AddChild(e.perf.Node)
	}
	mon.OnChange(func(s AdaptiveSettings) {
		logger.Info("quality changed", "tier", mon.Tier(), "particles", s.MaxParticles, "lights", s.MaxLights)
	})
	logger.Debug("engine ready", "backend", caps.Backend, "gpu", caps.GPUTier, "tier", mon.Tier())
	return e
}

// Update advances one tick of dt seconds: particles, lights, sprites, then
// one-off frame tasks.
func (e *Engine) Update(dt float64) {
	if e.destroyed {
		return
	}
	e.Emitter.Update()
	e.Lighting.Update(dt)
	e.Atlas.Update(dt)
	e.runTasks(dt)
	if e.perf != nil {
		e.perf.Update(dt)
	}
}

// Draw counts a rendered frame for the monitor, redraws the light layer and
// draws the host root onto screen.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.destroyed {
		return
	}
	e.Monitor.Frame()
	e.Lighting.Redraw()
	DrawTree(screen, e.Root, DrawOptions{Antialias: e.Monitor.Settings().Antialias})
}

// Animate registers a per-frame task: b is advanced every frame and apply
// receives its value. The task ends when b finishes, when owner is
// disposed, or when the returned cancel func is called.
func (e *Engine) Animate(owner *Node, b Behavior, apply func(v float64)) (cancel func()) {
	t := &frameTask{owner: owner, behavior: b, apply: apply}
	e.tasks = append(e.tasks, t)
	return func() { t.cancelled = true }
}

// TaskCount returns the number of running frame tasks.
func (e *Engine) TaskCount() int { return len(e.tasks) }

func (e *Engine) runTasks(dt float64) {
	tasks := e.tasks[:0]
	for _, t := range e.tasks {
		if t.cancelled || (t.owner != nil && t.owner.IsDisposed()) {
			continue
		}
		v, done := t.behavior.Advance(dt, e.rng)
		if t.apply != nil {
			t.apply(v)
		}
		if !done {
			tasks = append(tasks, t)
		}
	}
	clear(e.tasks[len(tasks):])
	e.tasks = tasks
}

// PulseHighlight pulses node's scale until node is disposed or the returned
// cancel func is called, which also restores the original scale.
func (e *Engine) PulseHighlight(node *Node) (cancel func()) {
	sx, sy := node.ScaleX, node.ScaleY
	stop := e.Animate(node, Pulse(6, 0.08), func(v float64) {
		node.ScaleX, node.ScaleY = sx*v, sy*v
	})
	return func() {
		stop()
		node.ScaleX, node.ScaleY = sx, sy
	}
}

// HomingIndicator draws a line from one point to another that fades out
// over half a second and then removes itself.
func (e *Engine) HomingIndicator(from, to Vec2, c Color) *Node {
	line := NewPolyline("fx_homing_indicator", []Vec2{from, to}, 2, c)
	line.BlendMode = BlendAdd
	e.Root.AddChild(line)
	e.Animate(line, OneShot(0.5), func(p float64) {
		line.Alpha = 1 - p
		if p >= 1 {
			line.Dispose()
		}
	})
	return line
}

// Particle side.

// SpawnBurst forwards to Emitter.SpawnBurst.
func (e *Engine) SpawnBurst(origin Vec2, c Color, count int, opts BurstOptions) []ParticleHandle {
	return e.Emitter.SpawnBurst(origin, c, count, opts)
}

// SpawnTrailParticle forwards to Emitter.SpawnTrailParticle.
func (e *Engine) SpawnTrailParticle(origin Vec2, c Color, count int) []ParticleHandle {
	return e.Emitter.SpawnTrailParticle(origin, c, count)
}

// SpawnCollector forwards to Emitter.SpawnCollector.
func (e *Engine) SpawnCollector(origin, target Vec2, c Color) ParticleHandle {
	return e.Emitter.SpawnCollector(origin, target, c)
}

// SpawnRingWave forwards to Emitter.SpawnRingWave.
func (e *Engine) SpawnRingWave(origin Vec2, radius float64, c Color, opts RingOptions) *RingWave {
	return e.Emitter.SpawnRingWave(origin, radius, c, opts)
}

// SpawnVortex forwards to Emitter.SpawnVortex.
func (e *Engine) SpawnVortex(origin Vec2, radius float64, c Color, duration int) *Vortex {
	return e.Emitter.SpawnVortex(origin, radius, c, duration)
}

// SpawnLightningBolt forwards to Emitter.SpawnLightningBolt.
func (e *Engine) SpawnLightningBolt(start, end Vec2, c Color) *LightningBolt {
	return e.Emitter.SpawnLightningBolt(start, end, c)
}

// CreateGlow forwards to Lighting.CreateGlow.
func (e *Engine) CreateGlow(pos Vec2, c Color, intensity, radius float64) LightID {
	return e.Lighting.CreateGlow(pos, c, intensity, radius)
}

// Lighting side.

// CreatePointLight forwards to Lighting.CreatePointLight.
func (e *Engine) CreatePointLight(pos Vec2, c Color, intensity, radius float64, opts LightOptions) LightID {
	return e.Lighting.CreatePointLight(pos, c, intensity, radius, opts)
}

// CreateDirectionalLight forwards to Lighting.CreateDirectionalLight.
func (e *Engine) CreateDirectionalLight(angle float64, c Color, intensity float64, opts DirectionalOptions) LightID {
	return e.Lighting.CreateDirectionalLight(angle, c, intensity, opts)
}

// MoveLight forwards to Lighting.MoveLight.
func (e *Engine) MoveLight(id LightID, x, y float64) { e.Lighting.MoveLight(id, x, y) }

// SetLightIntensity forwards to Lighting.SetLightIntensity.
func (e *Engine) SetLightIntensity(id LightID, intensity float64) {
	e.Lighting.SetLightIntensity(id, intensity)
}

// SetLightColor forwards to Lighting.SetLightColor.
func (e *Engine) SetLightColor(id LightID, c Color) { e.Lighting.SetLightColor(id, c) }

// RemoveLight forwards to Lighting.RemoveLight.
func (e *Engine) RemoveLight(id LightID) { e.Lighting.RemoveLight(id) }

// Atlas side.

// CreateAnimatedSprite forwards to SpriteAtlas.CreateAnimatedSprite.
func (e *Engine) CreateAnimatedSprite(name string, opts SpriteOptions) *AnimatedSprite {
	return e.Atlas.CreateAnimatedSprite(name, opts)
}

// CreateStaticSprite forwards to SpriteAtlas.CreateStaticSprite.
func (e *Engine) CreateStaticSprite(name string) *Node { return e.Atlas.CreateStaticSprite(name) }

// IsSymbolLoaded forwards to SpriteAtlas.IsSymbolLoaded.
func (e *Engine) IsSymbolLoaded(name string) bool { return e.Atlas.IsSymbolLoaded(name) }

// AvailableSymbols forwards to SpriteAtlas.AvailableSymbols.
func (e *Engine) AvailableSymbols() []string { return e.Atlas.AvailableSymbols() }

// CreateWinAnimation forwards to SpriteAtlas.CreateWinAnimation.
func (e *Engine) CreateWinAnimation() Overlay { return e.Atlas.CreateWinAnimation() }

// CreateComboAnimation forwards to SpriteAtlas.CreateComboAnimation.
func (e *Engine) CreateComboAnimation(count int) Overlay {
	return e.Atlas.CreateComboAnimation(count)
}

// CreateLevelUpAnimation forwards to SpriteAtlas.CreateLevelUpAnimation.
func (e *Engine) CreateLevelUpAnimation(level int) Overlay {
	return e.Atlas.CreateLevelUpAnimation(level)
}

// Clear removes every particle, effect, light, overlay and frame task.
// The ambient layer stays. Idempotent.
func (e *Engine) Clear() {
	e.Emitter.Clear()
	e.Lighting.Clear()
	e.Atlas.Clear()
	clear(e.tasks)
	e.tasks = e.tasks[:0]
}

// Destroy clears everything, detaches all engine nodes from the root and
// stops the monitor.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.Clear()
	e.Emitter.Destroy()
	e.Lighting.Destroy()
	e.Atlas.Destroy()
	if e.perf != nil {
		e.perf.Node.Dispose()
	}
	e.Monitor.Destroy()
	e.destroyed = true
}
