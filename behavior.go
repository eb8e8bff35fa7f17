package fx

import (
	"math"
	"math/rand/v2"
)

// BehaviorKind tags the per-frame animation a Behavior evaluates.
type BehaviorKind uint8

const (
	BehaviorNone    BehaviorKind = iota // constant 1, never finishes
	BehaviorFlicker                     // sine jitter plus a small random term
	BehaviorPulse                       // smooth sine oscillation
	BehaviorOneShot                     // linear 0..1 progress over Duration, then done
)

// Behavior is a small state machine evaluated inside the owning component's
// update loop. It replaces free-standing per-frame callbacks: when the owner
// goes away, so does its behavior.
type Behavior struct {
	Kind      BehaviorKind
	Speed     float64 // angular speed in radians per second (flicker, pulse)
	Amplitude float64 // peak deviation from 1 (flicker, pulse)
	Duration  float64 // seconds (one-shot)

	elapsed float64
}

// Flicker returns a flicker behavior.
func Flicker(speed, amplitude float64) Behavior {
	return Behavior{Kind: BehaviorFlicker, Speed: speed, Amplitude: amplitude}
}

// Pulse returns a pulse behavior.
func Pulse(speed, amplitude float64) Behavior {
	return Behavior{Kind: BehaviorPulse, Speed: speed, Amplitude: amplitude}
}

// OneShot returns a timer behavior lasting duration seconds.
func OneShot(duration float64) Behavior {
	return Behavior{Kind: BehaviorOneShot, Duration: duration}
}

// Elapsed returns the accumulated time in seconds.
func (b *Behavior) Elapsed() float64 { return b.elapsed }

// Advance accumulates dt seconds and evaluates the behavior. Flicker and
// pulse return a multiplier around 1; one-shot returns progress in [0, 1]
// and done once Duration has elapsed. rng may be nil for non-flicker kinds.
func (b *Behavior) Advance(dt float64, rng *rand.Rand) (value float64, done bool) {
	b.elapsed += dt
	switch b.Kind {
	case BehaviorFlicker:
		noise := 0.0
		if rng != nil {
			noise = (rng.Float64() - 0.5) * b.Amplitude * 0.5
		}
		return 1 + b.Amplitude*math.Sin(b.elapsed*b.Speed) + noise, false
	case BehaviorPulse:
		return 1 + b.Amplitude*math.Sin(b.elapsed*b.Speed), false
	case BehaviorOneShot:
		if b.Duration <= 0 {
			return 1, true
		}
		p := b.elapsed / b.Duration
		if p >= 1 {
			return 1, true
		}
		return p, false
	default:
		return 1, false
	}
}
