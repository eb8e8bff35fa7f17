package fx

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font/gofont/gobold"
)

const (
	overlayPopTime    = 0.25 // seconds
	overlaySettleTime = 0.15
	overlayHoldTime   = 0.8
	overlayFadeTime   = 0.4
	overlayPopScale   = 1.2
	overlayLabelGap   = 48
)

// overlay symbol preferences, first loaded wins.
var (
	winSymbols     = []string{"trophy", "star", "coin"}
	comboSymbols   = []string{"fire", "star", "coin"}
	levelUpSymbols = []string{"crown", "star", "trophy"}
)

var boldSource *text.GoTextFaceSource

// defaultFace returns a Go Bold face of the given size, or nil if the
// embedded font cannot be parsed.
func defaultFace(size float64) text.Face {
	if boldSource == nil {
		src, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
		if err != nil {
			logger.Error("overlay font unavailable", "err", err)
			return nil
		}
		boldSource = src
	}
	return &text.GoTextFace{Source: boldSource, Size: size}
}

// overlay is a one-shot pop, hold, fade sequence on a container holding a
// symbol sprite and an optional label. It detaches itself when done.
type overlay struct {
	node   *Node
	sprite *AnimatedSprite
	seq    *TweenSequence
}

// update advances the overlay. Returns false once it has detached, which
// happens when both the fade and the symbol's single run have finished.
func (o *overlay) update(dt float64) bool {
	if o.node.IsDisposed() {
		return false
	}
	if o.sprite != nil {
		o.sprite.update(dt)
	}
	o.seq.Update(float32(dt))
	if o.seq.Done && (o.sprite == nil || o.sprite.Done()) {
		o.node.Dispose()
		return false
	}
	return true
}

// holdTime is the hold step length: the base hold, stretched until the
// symbol's frame run can finish before the fade.
func (o *overlay) holdTime(speed float32) float32 {
	hold := overlayHoldTime / speed
	if o.sprite != nil {
		hold = max(hold, float32(o.sprite.remaining()))
	}
	return hold
}

// Done reports whether the overlay has finished and detached.
func (o *overlay) Done() bool { return o.node.IsDisposed() }

// Overlay is the handle returned by the one-shot overlay constructors.
type Overlay struct {
	o *overlay
}

// Node returns the overlay's container.
func (h Overlay) Node() *Node {
	if h.o == nil {
		return nil
	}
	return h.o.node
}

// Done reports whether the overlay has finished and detached itself.
func (h Overlay) Done() bool { return h.o == nil || h.o.Done() }

func (sa *SpriteAtlas) firstLoaded(names []string) string {
	for _, n := range names {
		if sa.IsSymbolLoaded(n) {
			return n
		}
	}
	return ""
}

// spawnOverlay builds an overlay around the first available symbol of
// prefs with an optional label below it.
func (sa *SpriteAtlas) spawnOverlay(name string, prefs []string, label string) Overlay {
	if sa.destroyed {
		return Overlay{}
	}
	c := NewContainer(name)
	c.X, c.Y = sa.origin.X, sa.origin.Y
	c.ScaleX, c.ScaleY = 0, 0

	o := &overlay{node: c}
	if sym := sa.firstLoaded(prefs); sym != "" {
		anim := sa.symbols[sym]
		n := NewSprite("fx_overlay_"+sym, anim.Frames[0])
		c.AddChild(n)
		o.sprite = &AnimatedSprite{
			Node:     n,
			anim:     anim,
			settings: sa.settings,
			speed:    1,
			playing:  true,
		}
	}
	if label != "" && sa.face != nil {
		l := NewLabel("fx_overlay_label", label, sa.face, ColorFromHex(0xFFD54A))
		if o.sprite != nil {
			l.Y = overlayLabelGap
		}
		c.AddChild(l)
	}

	speed := float32(sa.settings.AnimationSpeed)
	if speed <= 0 {
		speed = 1
	}
	o.seq = Sequence(
		func() *TweenGroup { return TweenScale(c, overlayPopScale, overlayPopTime/speed, ease.OutBack) },
		func() *TweenGroup { return TweenScale(c, 1, overlaySettleTime/speed, ease.InOutQuad) },
		func() *TweenGroup { return TweenWait(o.holdTime(speed)) },
		func() *TweenGroup { return TweenAlpha(c, 0, overlayFadeTime/speed, ease.InQuad) },
	)
	if sa.root != nil {
		sa.root.AddChild(c)
	}
	sa.overlays = append(sa.overlays, o)
	return Overlay{o: o}
}

// CreateWinAnimation plays the win overlay.
func (sa *SpriteAtlas) CreateWinAnimation() Overlay {
	return sa.spawnOverlay("fx_win", winSymbols, "")
}

// CreateComboAnimation plays the combo overlay with a "xN" counter.
func (sa *SpriteAtlas) CreateComboAnimation(count int) Overlay {
	return sa.spawnOverlay("fx_combo", comboSymbols, fmt.Sprintf("x%d", count))
}

// CreateLevelUpAnimation plays the level-up overlay with a level label.
func (sa *SpriteAtlas) CreateLevelUpAnimation(level int) Overlay {
	return sa.spawnOverlay("fx_level_up", levelUpSymbols, fmt.Sprintf("LEVEL %d", level))
}
