package fx

import (
	"math"
	"time"
)

// Policy constants. Compiled in; not externally configurable.
const (
	sampleWindow = 1.0 // seconds per fps sample

	lowFPSThreshold  = 30.0
	highFPSThreshold = 50.0

	MinParticles = 50
	MaxParticles = 500
	MinLights    = 2
	MaxLights    = 8

	minAnimationSpeed = 0.5
	maxAnimationSpeed = 1.5
	minParticleSize   = 0.6

	degradeFactor = 0.8
	upgradeFactor = 1.2
)

// PerformanceTier classifies a measured frame rate.
type PerformanceTier uint8

const (
	TierLow    PerformanceTier = iota // < 30 fps
	TierMedium                        // < 50 fps
	TierHigh                          // >= 50 fps
)

func (t PerformanceTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// ClassifyFPS maps a frame rate to its performance tier.
func ClassifyFPS(fps float64) PerformanceTier {
	switch {
	case fps < lowFPSThreshold:
		return TierLow
	case fps < highFPSThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}

// TextureQuality is the texture resolution tier effects should request.
type TextureQuality uint8

const (
	TextureMedium TextureQuality = iota
	TextureHigh
	TextureUltra
)

func (q TextureQuality) String() string {
	switch q {
	case TextureUltra:
		return "ultra"
	case TextureHigh:
		return "high"
	default:
		return "medium"
	}
}

// EffectKind names a budgeted effect class for CanAddEffect.
type EffectKind uint8

const (
	EffectParticle EffectKind = iota
	EffectLight
	effectKindCount
)

// AdaptiveSettings is the single quality policy shared by every component.
// The Monitor is its only writer and replaces it wholesale once per sample;
// readers hold the pointer and see the new values on their next tick.
type AdaptiveSettings struct {
	MaxParticles   int
	ParticleSize   float64 // multiplier applied to spawn sizes
	AnimationSpeed float64 // multiplier applied to sprite playback
	Antialias      bool
	Shadows        bool
	TextureQuality TextureQuality
	MaxLights      int
}

// PerformanceSample is one closed sampling window.
type PerformanceSample struct {
	FPS       float64
	Timestamp time.Duration // monitor clock at the end of the window
}

// Monitor measures frame rate once per second and re-tunes AdaptiveSettings.
type Monitor struct {
	caps     Capabilities
	seed     AdaptiveSettings
	settings *AdaptiveSettings
	tier     PerformanceTier
	clamped  bool

	now         func() time.Duration
	frames      int
	windowStart time.Duration
	started     bool
	last        PerformanceSample

	counters  [effectKindCount]func() int
	onChange  []func(AdaptiveSettings)
	destroyed bool
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithClock replaces the wall clock that times fps windows. now must be
// monotonic.
func WithClock(now func() time.Duration) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMonitor seeds adaptive settings from the device capabilities. Without a
// backend the monitor is permanently clamped to the lowest tier.
func NewMonitor(caps Capabilities, opts ...MonitorOption) *Monitor {
	seed, tier := seedSettings(caps)
	s := seed
	start := time.Now()
	m := &Monitor{
		caps:     caps,
		seed:     seed,
		settings: &s,
		tier:     tier,
		clamped:  !caps.Backend,
		now:      func() time.Duration { return time.Since(start) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// seedSettings derives the starting settings and tier. Mobile and
// low-resolution devices start conservative regardless of GPU class.
func seedSettings(caps Capabilities) (AdaptiveSettings, PerformanceTier) {
	switch {
	case !caps.Backend:
		return AdaptiveSettings{
			MaxParticles:   MinParticles,
			ParticleSize:   minParticleSize,
			AnimationSpeed: minAnimationSpeed,
			TextureQuality: TextureMedium,
			MaxLights:      MinLights,
		}, TierLow
	case caps.Mobile || caps.LowResolution():
		return AdaptiveSettings{
			MaxParticles:   150,
			ParticleSize:   0.8,
			AnimationSpeed: 1,
			TextureQuality: TextureMedium,
			MaxLights:      3,
		}, TierMedium
	case caps.GPUTier == GPUTierHigh:
		return AdaptiveSettings{
			MaxParticles:   MaxParticles,
			ParticleSize:   1,
			AnimationSpeed: 1,
			Antialias:      true,
			Shadows:        true,
			TextureQuality: TextureUltra,
			MaxLights:      MaxLights,
		}, TierHigh
	case caps.GPUTier == GPUTierMedium:
		return AdaptiveSettings{
			MaxParticles:   300,
			ParticleSize:   1,
			AnimationSpeed: 1,
			Antialias:      true,
			Shadows:        true,
			TextureQuality: TextureHigh,
			MaxLights:      6,
		}, TierMedium
	default:
		return AdaptiveSettings{
			MaxParticles:   200,
			ParticleSize:   1,
			AnimationSpeed: 1,
			TextureQuality: TextureMedium,
			MaxLights:      4,
		}, TierLow
	}
}

// Settings returns the shared settings. The pointer is stable for the
// monitor's lifetime; its value is replaced on every re-tune.
func (m *Monitor) Settings() *AdaptiveSettings {
	return m.settings
}

// Tier returns the tier of the most recent sample (or the seed tier).
func (m *Monitor) Tier() PerformanceTier {
	return m.tier
}

// Capabilities returns the probe result the monitor was seeded from.
func (m *Monitor) Capabilities() Capabilities {
	return m.caps
}

// TextureScale is the resolution multiplier for generated textures: half
// size at medium quality, native at high and the device pixel ratio at
// ultra.
func (m *Monitor) TextureScale() float64 {
	switch m.settings.TextureQuality {
	case TextureUltra:
		return math.Max(1, m.caps.PixelRatio)
	case TextureHigh:
		return 1
	default:
		return 0.5
	}
}

// LastSample returns the most recent closed window.
func (m *Monitor) LastSample() PerformanceSample {
	return m.last
}

// Clamped reports whether the monitor is pinned to the lowest tier.
func (m *Monitor) Clamped() bool {
	return m.clamped
}

// OnChange registers fn to run after each re-tune that changed the settings.
func (m *Monitor) OnChange(fn func(AdaptiveSettings)) {
	if fn != nil {
		m.onChange = append(m.onChange, fn)
	}
}

// track registers the live-count source for an effect kind.
func (m *Monitor) track(kind EffectKind, count func() int) {
	if kind < effectKindCount {
		m.counters[kind] = count
	}
}

// limit returns the current bound for kind.
func (m *Monitor) limit(kind EffectKind) int {
	switch kind {
	case EffectParticle:
		return m.settings.MaxParticles
	case EffectLight:
		return m.settings.MaxLights
	default:
		return 0
	}
}

// Live returns the registered live count for kind.
func (m *Monitor) Live(kind EffectKind) int {
	if kind >= effectKindCount {
		return 0
	}
	if c := m.counters[kind]; c != nil {
		return c()
	}
	return 0
}

// Remaining returns how many more effects of kind fit the current budget.
// A destroyed monitor has no budget left.
func (m *Monitor) Remaining(kind EffectKind) int {
	if m.destroyed || kind >= effectKindCount {
		return 0
	}
	if r := m.limit(kind) - m.Live(kind); r > 0 {
		return r
	}
	return 0
}

// CanAddEffect reports whether one more effect of kind fits the budget.
func (m *Monitor) CanAddEffect(kind EffectKind) bool {
	return m.Remaining(kind) > 0
}

// Frame counts one rendered frame against the monitor clock. Call it from
// Draw: Ebitengine runs Update at a fixed TPS however slowly frames render,
// so only presented frames measure the device. The first call opens the
// window; once a second of clock time has passed the window's fps is
// recorded as a sample.
func (m *Monitor) Frame() {
	if m.destroyed {
		return
	}
	now := m.now()
	if !m.started {
		m.started = true
		m.windowStart = now
		return
	}
	m.frames++
	window := (now - m.windowStart).Seconds()
	if window < sampleWindow {
		return
	}
	fps := float64(m.frames) / window
	m.frames = 0
	m.windowStart = now
	m.RecordSample(PerformanceSample{FPS: fps, Timestamp: now})
}

// RecordSample classifies a sample and re-tunes the settings. Samples are
// ignored once destroyed or while clamped.
func (m *Monitor) RecordSample(s PerformanceSample) {
	if m.destroyed {
		return
	}
	m.last = s
	if m.clamped {
		m.tier = TierLow
		return
	}
	m.tier = ClassifyFPS(s.FPS)
	next := m.retune(*m.settings, m.tier)
	if next == *m.settings {
		return
	}
	*m.settings = next
	logger.Debug("adaptive settings re-tuned",
		"fps", math.Round(s.FPS*10)/10,
		"tier", m.tier,
		"particles", next.MaxParticles,
		"lights", next.MaxLights,
		"speed", next.AnimationSpeed)
	for _, fn := range m.onChange {
		fn(next)
	}
}

// retune computes the next settings from the current ones. A low tier never
// raises a bound and a high tier never lowers one.
func (m *Monitor) retune(cur AdaptiveSettings, tier PerformanceTier) AdaptiveSettings {
	next := cur
	switch tier {
	case TierLow:
		next.MaxParticles = clampInt(int(math.Floor(float64(cur.MaxParticles)*degradeFactor)), MinParticles, MaxParticles)
		next.MaxLights = clampInt(int(math.Floor(float64(cur.MaxLights)*degradeFactor)), MinLights, MaxLights)
		next.AnimationSpeed = clamp(cur.AnimationSpeed*degradeFactor, minAnimationSpeed, maxAnimationSpeed)
		next.ParticleSize = math.Max(minParticleSize, math.Min(cur.ParticleSize, cur.ParticleSize*0.9))
		next.Antialias = false
		next.Shadows = false
		next.TextureQuality = TextureMedium
	case TierHigh:
		next.MaxParticles = clampInt(int(math.Ceil(float64(cur.MaxParticles)*upgradeFactor)), MinParticles, MaxParticles)
		next.MaxLights = clampInt(int(math.Ceil(float64(cur.MaxLights)*upgradeFactor)), MinLights, MaxLights)
		next.AnimationSpeed = clamp(cur.AnimationSpeed*upgradeFactor, minAnimationSpeed, maxAnimationSpeed)
		next.ParticleSize = math.Max(cur.ParticleSize, math.Min(m.seed.ParticleSize, cur.ParticleSize*1.1))
		next.Antialias = cur.Antialias || m.seed.Antialias
		next.Shadows = cur.Shadows || m.seed.Shadows
		if m.seed.TextureQuality > cur.TextureQuality {
			next.TextureQuality = m.seed.TextureQuality
		}
	}
	return next
}

// Destroy stops sampling and drops registered counters and hooks. The
// settings stay readable at their last values; every budget reads as full.
func (m *Monitor) Destroy() {
	m.destroyed = true
	m.counters = [effectKindCount]func() int{}
	m.onChange = nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
