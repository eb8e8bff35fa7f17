package fx

import (
	"testing"
	"time"
)

func sample(fps float64, sec int) PerformanceSample {
	return PerformanceSample{FPS: fps, Timestamp: time.Duration(sec) * time.Second}
}

func TestClassifyFPS(t *testing.T) {
	tests := []struct {
		fps  float64
		want PerformanceTier
	}{
		{0, TierLow},
		{29.9, TierLow},
		{30, TierMedium},
		{49.9, TierMedium},
		{50, TierHigh},
		{144, TierHigh},
	}
	for _, tt := range tests {
		if got := ClassifyFPS(tt.fps); got != tt.want {
			t.Errorf("ClassifyFPS(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestSeedDesktopHigh(t *testing.T) {
	m := NewMonitor(desktopCaps())
	s := m.Settings()
	if s.MaxParticles != MaxParticles || s.MaxLights != MaxLights {
		t.Errorf("bounds = %d particles, %d lights", s.MaxParticles, s.MaxLights)
	}
	if !s.Antialias || !s.Shadows || s.TextureQuality != TextureUltra {
		t.Errorf("quality = aa %v shadows %v texture %v", s.Antialias, s.Shadows, s.TextureQuality)
	}
	if m.Tier() != TierHigh {
		t.Errorf("Tier = %v, want high", m.Tier())
	}
}

func TestSeedMobileConservative(t *testing.T) {
	caps := desktopCaps()
	caps.Mobile = true
	s := NewMonitor(caps).Settings()
	if s.MaxParticles != 150 || s.MaxLights != 3 {
		t.Errorf("bounds = %d particles, %d lights, want 150/3", s.MaxParticles, s.MaxLights)
	}
	if s.Shadows || s.Antialias || s.TextureQuality != TextureMedium {
		t.Errorf("mobile seed should be conservative: %+v", *s)
	}
}

func TestSeedLowResolutionConservative(t *testing.T) {
	caps := desktopCaps()
	caps.ScreenWidth, caps.ScreenHeight = 1024, 600
	if s := NewMonitor(caps).Settings(); s.MaxParticles != 150 {
		t.Errorf("MaxParticles = %d, want 150", s.MaxParticles)
	}
}

func TestNoBackendClampedToFloor(t *testing.T) {
	m := NewMonitor(NoBackend())
	if !m.Clamped() {
		t.Fatal("monitor should be clamped")
	}
	s := m.Settings()
	if s.MaxParticles != MinParticles || s.MaxLights != MinLights {
		t.Errorf("bounds = %d/%d, want floor", s.MaxParticles, s.MaxLights)
	}
	for i := 0; i < 5; i++ {
		m.RecordSample(sample(120, i+1))
	}
	if m.Tier() != TierLow {
		t.Errorf("Tier = %v, want low", m.Tier())
	}
	if s.MaxParticles != MinParticles {
		t.Errorf("clamped monitor re-tuned to %d", s.MaxParticles)
	}
}

// A sustained low-fps streak only ever lowers bounds and stops at the floor.
func TestLowSamplesSettleAtFloor(t *testing.T) {
	m := NewMonitor(desktopCaps())
	s := m.Settings()
	prev := s.MaxParticles
	prevLights := s.MaxLights
	for i := 0; i < 20; i++ {
		m.RecordSample(sample(20, i+1))
		if s.MaxParticles > prev {
			t.Fatalf("sample %d: MaxParticles rose %d -> %d", i, prev, s.MaxParticles)
		}
		if s.MaxLights > prevLights {
			t.Fatalf("sample %d: MaxLights rose %d -> %d", i, prevLights, s.MaxLights)
		}
		if s.MaxParticles < MinParticles {
			t.Fatalf("sample %d: MaxParticles %d below floor", i, s.MaxParticles)
		}
		prev, prevLights = s.MaxParticles, s.MaxLights
	}
	if m.Tier() != TierLow {
		t.Errorf("Tier = %v, want low", m.Tier())
	}
	if s.MaxParticles != MinParticles {
		t.Errorf("MaxParticles = %d, want floor %d", s.MaxParticles, MinParticles)
	}
	if s.MaxLights != MinLights {
		t.Errorf("MaxLights = %d, want floor %d", s.MaxLights, MinLights)
	}
	if s.Shadows || s.Antialias {
		t.Error("low tier should disable shadows and antialiasing")
	}
	assertNear(t, "AnimationSpeed", s.AnimationSpeed, minAnimationSpeed)
}

func TestHighSamplesNeverDecrease(t *testing.T) {
	caps := desktopCaps()
	caps.GPUTier = GPUTierLow
	m := NewMonitor(caps)
	s := m.Settings()
	prev := *s
	for i := 0; i < 10; i++ {
		m.RecordSample(sample(60, i+1))
		if s.MaxParticles < prev.MaxParticles || s.MaxLights < prev.MaxLights || s.AnimationSpeed < prev.AnimationSpeed {
			t.Fatalf("sample %d lowered a bound: %+v -> %+v", i, prev, *s)
		}
		prev = *s
	}
	if s.MaxParticles != MaxParticles || s.MaxLights != MaxLights {
		t.Errorf("bounds = %d/%d, want ceiling", s.MaxParticles, s.MaxLights)
	}
	assertNear(t, "AnimationSpeed", s.AnimationSpeed, maxAnimationSpeed)
	if s.TextureQuality != TextureMedium {
		t.Errorf("TextureQuality = %v, must not exceed the seed", s.TextureQuality)
	}
}

func TestHighRestoresSeedQuality(t *testing.T) {
	m := NewMonitor(desktopCaps())
	s := m.Settings()
	m.RecordSample(sample(10, 1))
	if s.Shadows || s.TextureQuality != TextureMedium {
		t.Fatal("low sample should drop quality")
	}
	m.RecordSample(sample(60, 2))
	if !s.Shadows || !s.Antialias || s.TextureQuality != TextureUltra {
		t.Errorf("high sample should restore seed quality: %+v", *s)
	}
}

func TestMediumSampleKeepsSettings(t *testing.T) {
	m := NewMonitor(desktopCaps())
	before := *m.Settings()
	m.RecordSample(sample(40, 1))
	if *m.Settings() != before {
		t.Errorf("medium sample changed settings: %+v -> %+v", before, *m.Settings())
	}
	if m.Tier() != TierMedium {
		t.Errorf("Tier = %v, want medium", m.Tier())
	}
}

// fakeClock is a monitor clock advanced by hand.
type fakeClock struct{ now time.Duration }

func (c *fakeClock) read() time.Duration { return c.now }

func TestFrameClosesOneSecondWindow(t *testing.T) {
	clk := &fakeClock{}
	m := NewMonitor(desktopCaps(), WithClock(clk.read))
	for i := 0; i < 16; i++ {
		clk.now += 62500 * time.Microsecond
		m.Frame()
	}
	if m.LastSample().FPS != 0 {
		t.Fatal("window closed early")
	}
	clk.now += 62500 * time.Microsecond
	m.Frame()
	assertNear(t, "fps", m.LastSample().FPS, 16)
	if m.LastSample().Timestamp != clk.now {
		t.Errorf("Timestamp = %v, want %v", m.LastSample().Timestamp, clk.now)
	}
	if m.Tier() != TierLow {
		t.Errorf("Tier = %v, want low", m.Tier())
	}
	if m.Settings().MaxParticles != 400 {
		t.Errorf("MaxParticles = %d, want 400", m.Settings().MaxParticles)
	}
}

func TestFrameMeasuresClockNotFrameCount(t *testing.T) {
	clk := &fakeClock{}
	m := NewMonitor(desktopCaps(), WithClock(clk.read))
	m.Frame()
	for i := 0; i < 80; i++ {
		clk.now += 25 * time.Millisecond
		m.Frame()
		if i == 39 {
			assertNear(t, "fps", m.LastSample().FPS, 40)
		}
	}
	if m.Tier() != TierMedium {
		t.Errorf("Tier = %v, want medium at 40 fps", m.Tier())
	}
}

func TestTextureScaleFollowsQuality(t *testing.T) {
	caps := desktopCaps()
	caps.PixelRatio = 2
	m := NewMonitor(caps)
	assertNear(t, "ultra", m.TextureScale(), 2)
	m.RecordSample(sample(10, 1))
	assertNear(t, "medium", m.TextureScale(), 0.5)

	caps.GPUTier = GPUTierMedium
	assertNear(t, "high", NewMonitor(caps).TextureScale(), 1)
}

func TestSettingsPointerStable(t *testing.T) {
	m := NewMonitor(desktopCaps())
	p := m.Settings()
	m.RecordSample(sample(10, 1))
	if m.Settings() != p {
		t.Error("settings pointer changed on re-tune")
	}
}

func TestCanAddEffectTracksLiveCount(t *testing.T) {
	m := NewMonitor(NoBackend())
	live := 0
	m.track(EffectLight, func() int { return live })

	if m.Remaining(EffectLight) != MinLights {
		t.Errorf("Remaining = %d, want %d", m.Remaining(EffectLight), MinLights)
	}
	live = MinLights
	if m.CanAddEffect(EffectLight) {
		t.Error("budget full, CanAddEffect should be false")
	}
	live = MinLights + 3
	if m.Remaining(EffectLight) != 0 {
		t.Errorf("Remaining = %d, want 0", m.Remaining(EffectLight))
	}
	if m.Live(EffectLight) != live {
		t.Errorf("Live = %d, want %d", m.Live(EffectLight), live)
	}
}

func TestOnChangeFiresOnRetune(t *testing.T) {
	m := NewMonitor(desktopCaps())
	var got []AdaptiveSettings
	m.OnChange(func(s AdaptiveSettings) { got = append(got, s) })

	m.RecordSample(sample(40, 1)) // medium: no change
	m.RecordSample(sample(10, 2))

	if len(got) != 1 {
		t.Fatalf("OnChange calls = %d, want 1", len(got))
	}
	if got[0].MaxParticles != 400 {
		t.Errorf("MaxParticles = %d, want 400", got[0].MaxParticles)
	}
}

func TestDestroyStopsSampling(t *testing.T) {
	m := NewMonitor(desktopCaps())
	m.track(EffectParticle, func() int { return 10 })
	m.Destroy()

	m.RecordSample(sample(10, 1))
	if m.Settings().MaxParticles != MaxParticles {
		t.Error("destroyed monitor should not re-tune")
	}
	if m.Live(EffectParticle) != 0 {
		t.Error("destroyed monitor should drop counters")
	}
	if m.Remaining(EffectParticle) != 0 || m.CanAddEffect(EffectLight) {
		t.Error("destroyed monitor should report no budget")
	}
	m.Frame()
	m.Frame()
	if m.LastSample().FPS != 0 {
		t.Error("destroyed monitor should not sample frames")
	}
}
