package fx

import (
	"image"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// SymbolAnimation is the shared definition of one named symbol: ordered
// frames into the base texture plus playback rate and loop flag.
type SymbolAnimation struct {
	Name   string
	Frames []*ebiten.Image
	FPS    float64
	Loop   bool
	// Static is set when the symbol fell back to a single standalone frame.
	Static bool
}

// SpriteOptions shape CreateAnimatedSprite. The zero value loops per the
// symbol definition at normal speed.
type SpriteOptions struct {
	Speed       float64 // playback multiplier; 0 means 1
	Once        bool    // play once even if the symbol loops
	AutoDispose bool    // dispose the node when a non-looping run ends
	Parent      *Node   // attach the sprite node here when set
	X, Y        float64
}

// AnimatedSprite is an independent playback instance of a symbol. Several
// sprites of the same symbol keep their own frame cursor.
type AnimatedSprite struct {
	Node *Node

	anim        *SymbolAnimation
	settings    *AdaptiveSettings
	atlas       *SpriteAtlas
	tracked     bool
	speed       float64
	loop        bool
	autoDispose bool
	cursor      float64 // fractional frame position
	frame       int
	playing     bool
	done        bool
}

// Symbol returns the symbol name.
func (s *AnimatedSprite) Symbol() string { return s.anim.Name }

// Frame returns the current frame index.
func (s *AnimatedSprite) Frame() int { return s.frame }

// FrameCount returns the number of frames in the animation.
func (s *AnimatedSprite) FrameCount() int { return len(s.anim.Frames) }

// Static reports whether the sprite shows a single fallback frame.
func (s *AnimatedSprite) Static() bool { return s.anim.Static || len(s.anim.Frames) <= 1 }

// Playing reports whether the cursor is advancing.
func (s *AnimatedSprite) Playing() bool { return s.playing }

// Done reports whether a non-looping run has finished.
func (s *AnimatedSprite) Done() bool { return s.done }

// Play resumes playback. A finished sprite restarts from the first frame.
func (s *AnimatedSprite) Play() {
	if s.done {
		s.done = false
		s.cursor = 0
		s.setFrame(0)
	}
	s.playing = true
	if !s.tracked && s.atlas != nil {
		s.atlas.track(s)
	}
}

// Stop pauses playback on the current frame.
func (s *AnimatedSprite) Stop() { s.playing = false }

func (s *AnimatedSprite) setFrame(i int) {
	s.frame = i
	if i < len(s.anim.Frames) {
		s.Node.SetImage(s.anim.Frames[i])
	}
}

// remaining returns the seconds left in a non-looping run at the current
// playback rate.
func (s *AnimatedSprite) remaining() float64 {
	if s.done || s.loop || s.Static() {
		return 0
	}
	rate := s.anim.FPS * s.speed * s.settings.AnimationSpeed
	if rate <= 0 {
		return 0
	}
	return (float64(len(s.anim.Frames)) - s.cursor) / rate
}

// update advances the cursor by dt seconds scaled by the sprite speed and
// the adaptive animation speed. Returns false once the sprite is finished
// or its node is gone; a finished sprite keeps showing its last frame.
func (s *AnimatedSprite) update(dt float64) bool {
	if s.Node.IsDisposed() {
		return false
	}
	if !s.playing || s.done {
		return !s.done
	}
	n := len(s.anim.Frames)
	if s.Static() {
		if !s.loop {
			s.finish()
		}
		return !s.done
	}
	s.cursor += dt * s.anim.FPS * s.speed * s.settings.AnimationSpeed
	idx := int(s.cursor)
	if idx >= n {
		if !s.loop {
			s.setFrame(n - 1)
			s.finish()
			return false
		}
		for s.cursor >= float64(n) {
			s.cursor -= float64(n)
		}
		idx = int(s.cursor)
	}
	if idx != s.frame {
		s.setFrame(idx)
	}
	return true
}

func (s *AnimatedSprite) finish() {
	s.done = true
	s.playing = false
	if s.autoDispose {
		s.Node.Dispose()
	}
}

// SpriteAtlas slices one base texture into named symbol animations and
// serves independent playback handles. When the base texture cannot be
// loaded every symbol falls back to a standalone "<symbol>.png" frame, and
// then to a generated placeholder.
type SpriteAtlas struct {
	mon      *Monitor
	settings *AdaptiveSettings
	root     *Node

	symbols  map[string]*SymbolAnimation
	fallback bool

	sprites  []*AnimatedSprite
	overlays []*overlay
	origin   Vec2
	face     text.Face

	destroyed bool
}

// NewSpriteAtlas loads set through assets. Load failures are logged and
// never returned: the atlas is always usable. Overlays attach under root.
func NewSpriteAtlas(root *Node, mon *Monitor, assets AssetSource, set SymbolSet) *SpriteAtlas {
	sa := &SpriteAtlas{
		mon:      mon,
		settings: mon.Settings(),
		root:     root,
		symbols:  make(map[string]*SymbolAnimation, len(set.Symbols)),
		face:     defaultFace(28),
	}
	if err := set.normalize(); err != nil {
		logger.Warn("symbol set invalid", "err", err)
	}

	var base *ebiten.Image
	var atlas *Atlas
	var err error
	if assets != nil && set.Texture != "" {
		base, err = assets.Image(set.Texture)
	} else {
		err = ErrAssetLoad
	}
	if err != nil {
		logger.Warn("atlas texture unavailable, using static frames", "texture", set.Texture, "err", err)
		sa.fallback = true
	} else if set.Atlas != "" {
		atlas, err = loadAtlasFile(assets, set.Atlas, base)
		if err != nil {
			logger.Warn("atlas frame data unavailable, using grid", "atlas", set.Atlas, "err", err)
		}
	}

	for _, def := range set.Symbols {
		var anim *SymbolAnimation
		if !sa.fallback {
			anim = sliceSymbol(def, set, base, atlas)
		}
		if anim == nil {
			anim = staticSymbol(def, assets)
		}
		sa.symbols[def.Name] = anim
	}
	logger.Debug("sprite atlas ready", "symbols", len(sa.symbols), "fallback", sa.fallback)
	return sa
}

func loadAtlasFile(assets AssetSource, name string, base *ebiten.Image) (*Atlas, error) {
	data, err := assets.Bytes(name)
	if err != nil {
		return nil, err
	}
	return LoadAtlas(data, []*ebiten.Image{base})
}

// sliceSymbol cuts def's frames out of base, or out of atlas regions when
// def names them. Returns nil when no frame could be resolved.
func sliceSymbol(def SymbolDef, set SymbolSet, base *ebiten.Image, atlas *Atlas) *SymbolAnimation {
	anim := &SymbolAnimation{Name: def.Name, FPS: def.FPS, Loop: def.Loop}
	if len(def.Regions) > 0 && atlas != nil {
		for _, r := range def.Regions {
			if img, ok := atlas.Frame(r); ok {
				anim.Frames = append(anim.Frames, img)
			}
		}
	} else {
		fw, fh := set.FrameWidth, set.FrameHeight
		for i := 0; i < def.Frames; i++ {
			x := (def.Column + i) * fw
			y := def.Row * fh
			img, ok := subImage(base, image.Rect(x, y, x+fw, y+fh))
			if !ok {
				break
			}
			anim.Frames = append(anim.Frames, img)
		}
	}
	if len(anim.Frames) == 0 {
		return nil
	}
	return anim
}

// staticSymbol builds the single-frame fallback for def.
func staticSymbol(def SymbolDef, assets AssetSource) *SymbolAnimation {
	anim := &SymbolAnimation{Name: def.Name, FPS: def.FPS, Loop: def.Loop, Static: true}
	var img *ebiten.Image
	var err error
	if assets != nil {
		img, err = assets.Image(def.Name + ".png")
	}
	if img == nil {
		logger.Warn("symbol frame unavailable, using placeholder", "symbol", def.Name, "err", err)
		img = ensurePlaceholder()
	}
	anim.Frames = []*ebiten.Image{img}
	return anim
}

// Fallback reports whether the atlas is serving static fallback frames.
func (sa *SpriteAtlas) Fallback() bool { return sa.fallback }

// IsSymbolLoaded reports whether name has a definition, animated or static.
func (sa *SpriteAtlas) IsSymbolLoaded(name string) bool {
	_, ok := sa.symbols[name]
	return ok
}

// AvailableSymbols returns every symbol name in sorted order.
func (sa *SpriteAtlas) AvailableSymbols() []string {
	names := make([]string, 0, len(sa.symbols))
	for name := range sa.symbols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Animation returns the shared definition for name.
func (sa *SpriteAtlas) Animation(name string) (*SymbolAnimation, bool) {
	a, ok := sa.symbols[name]
	return a, ok
}

// SpriteCount returns the number of sprites being advanced.
func (sa *SpriteAtlas) SpriteCount() int { return len(sa.sprites) }

// OverlayCount returns the number of running one-shot overlays.
func (sa *SpriteAtlas) OverlayCount() int { return len(sa.overlays) }

// SetOverlayOrigin sets where one-shot overlays are centered.
func (sa *SpriteAtlas) SetOverlayOrigin(x, y float64) {
	sa.origin = Vec2{x, y}
}

// SetFace replaces the font used by overlay labels.
func (sa *SpriteAtlas) SetFace(face text.Face) {
	if face != nil {
		sa.face = face
	}
}

// CreateAnimatedSprite returns a fresh playback instance of name. Unknown
// names return nil.
func (sa *SpriteAtlas) CreateAnimatedSprite(name string, opts SpriteOptions) *AnimatedSprite {
	anim, ok := sa.symbols[name]
	if !ok || sa.destroyed {
		logger.Debug("unknown symbol", "symbol", name)
		return nil
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}
	n := NewSprite("fx_symbol_"+name, anim.Frames[0])
	n.X, n.Y = opts.X, opts.Y
	if opts.Parent != nil {
		opts.Parent.AddChild(n)
	}
	s := &AnimatedSprite{
		Node:        n,
		anim:        anim,
		settings:    sa.settings,
		atlas:       sa,
		speed:       speed,
		loop:        anim.Loop && !opts.Once,
		autoDispose: opts.AutoDispose,
		playing:     true,
	}
	sa.track(s)
	return s
}

// track starts advancing s on every Update.
func (sa *SpriteAtlas) track(s *AnimatedSprite) {
	if sa.destroyed || s.Node.IsDisposed() {
		return
	}
	s.tracked = true
	sa.sprites = append(sa.sprites, s)
}

// CreateStaticSprite returns a sprite node showing the first frame of name,
// or nil for unknown names.
func (sa *SpriteAtlas) CreateStaticSprite(name string) *Node {
	anim, ok := sa.symbols[name]
	if !ok {
		return nil
	}
	return NewSprite("fx_static_"+name, anim.Frames[0])
}

// Update advances every sprite and overlay by dt seconds and drops the ones
// that finished or whose node was disposed. A dropped sprite is tracked
// again when Play restarts it.
func (sa *SpriteAtlas) Update(dt float64) {
	if sa.destroyed {
		return
	}
	sprites := sa.sprites[:0]
	for _, s := range sa.sprites {
		if s.update(dt) {
			sprites = append(sprites, s)
		} else {
			s.tracked = false
		}
	}
	clear(sa.sprites[len(sprites):])
	sa.sprites = sprites

	overlays := sa.overlays[:0]
	for _, o := range sa.overlays {
		if o.update(dt) {
			overlays = append(overlays, o)
		}
	}
	clear(sa.overlays[len(overlays):])
	sa.overlays = overlays
}

// Clear disposes every overlay and stops tracking sprites. Sprite nodes the
// caller attached elsewhere are left alone.
func (sa *SpriteAtlas) Clear() {
	for _, o := range sa.overlays {
		o.node.Dispose()
	}
	clear(sa.overlays)
	sa.overlays = sa.overlays[:0]
	for _, s := range sa.sprites {
		s.tracked = false
	}
	clear(sa.sprites)
	sa.sprites = sa.sprites[:0]
}

// Destroy clears the atlas and rejects further sprite creation.
func (sa *SpriteAtlas) Destroy() {
	sa.Clear()
	sa.destroyed = true
}
