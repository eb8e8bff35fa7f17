// Package fx is a real-time visual-feedback engine for [Ebitengine]. It
// renders particle bursts, dynamic lights and animated symbols that
// celebrate user actions in a budgeting app, and scales its own quality to
// the frame rate the device actually delivers.
//
// # Quick start
//
// Build an [Engine] on a root [Node] and drive it from your game:
//
//	type Game struct {
//		root *fx.Node
//		fx   *fx.Engine
//	}
//
//	func (g *Game) Update() error {
//		if g.fx == nil {
//			g.fx = fx.NewEngine(g.root, fx.EngineOptions{Width: 1280, Height: 720})
//		}
//		g.fx.Update(1.0 / float64(ebiten.TPS()))
//		return nil
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) { g.fx.Draw(screen) }
//
// The engine probes the graphics backend when it is created. Ebitengine only
// reports its backend once the game loop runs, so create the engine from the
// first Update.
//
// Update advances simulation by a fixed step; Ebitengine calls it at a
// steady TPS even when rendering falls behind. The monitor therefore counts
// frames in Draw and times them against the wall clock.
//
// # Components
//
// [Probe] inspects the device once and returns [Capabilities]. [Monitor]
// seeds [AdaptiveSettings] from them, samples the rendered frame rate every
// second and re-tunes the settings: particle and light budgets, particle
// size, animation speed, antialiasing, shadows and texture quality. Texture
// quality sets the resolution of generated light, shadow and particle
// textures, bounded by the device's maximum texture size. Every other
// component holds a pointer to those settings and reads them on its next
// tick.
//
// [Emitter] owns a fixed-capacity particle arena. Spawns are truncated to
// the remaining budget, never rejected with an error:
//
//	e.SpawnBurst(fx.Vec2{X: 100, Y: 100}, fx.ColorFromHex(0xFFD700), 30, fx.BurstOptions{
//		Size: 5, Life: 80, Speed: 4, Gravity: 0.15, Sparkle: true,
//	})
//
// Ring waves, vortices and lightning bolts are built on the same emitter.
// [Lighting] keeps an ambient darkness layer that point and directional
// lights erase, with optional flicker, pulse and shadows. [SpriteAtlas]
// slices one base texture into named symbol animations described by a YAML
// [SymbolSet] and hands out independent [AnimatedSprite] instances; when the
// texture is missing it falls back to static frames.
//
// # Failure model
//
// Once constructed nothing in fx returns an error to the caller. A missing
// backend clamps quality to the lowest tier, missing assets fall back to
// placeholders, and homing particles whose target disappears simply decay.
// Degradations are logged through [Logger].
//
// [Ebitengine]: https://ebitengine.org
package fx
