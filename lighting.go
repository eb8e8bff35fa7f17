package fx

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

const (
	defaultFlickerSpeed = 9.0 // radians per second
	defaultPulseSpeed   = 3.0
	flickerAmplitude    = 0.12
	pulseAmplitude      = 0.08
	glowPulseAmplitude  = 0.1
	shadowAlpha         = 0.35
	shadowAspect        = 0.4 // ellipse height over width
	tintStrength        = 0.3
)

// LightID names a dynamic light. The empty ID means "not created".
type LightID string

// LightKind distinguishes how a light is drawn.
type LightKind uint8

const (
	LightPoint LightKind = iota
	LightDirectional
	LightGlow
)

// LightOptions shape CreatePointLight. Zero speeds take defaults.
type LightOptions struct {
	Flicker      bool
	Pulse        bool
	CastShadows  bool
	FlickerSpeed float64
	PulseSpeed   float64
}

// DirectionalOptions shape CreateDirectionalLight.
type DirectionalOptions struct {
	CastShadows  bool
	ShadowLength float64
}

// Shadow is the primitive paired with a shadow-casting light. It is created
// and removed together with its light and always shares its position.
type Shadow struct {
	X, Y   float64
	Angle  float64
	Length float64
	node   *Node
}

// Light is a dynamic light owned by the Lighting manager.
type Light struct {
	ID        LightID
	Kind      LightKind
	X, Y      float64
	Color     Color
	Intensity float64 // base intensity in [0, 1]
	Radius    float64
	Angle     float64 // directional lights only

	Flicker     bool
	Pulse       bool
	CastsShadow bool

	flicker Behavior
	pulse   Behavior
	level   float64 // evaluated intensity this frame
	scale   float64 // evaluated pulse scale this frame

	texture *ebiten.Image
	shadow  *Shadow
	glow    *Node
}

// Level returns the intensity evaluated by the last Update.
func (l *Light) Level() float64 { return l.level }

// Scale returns the pulse scale evaluated by the last Update.
func (l *Light) Scale() float64 { return l.scale }

// Shadow returns the paired shadow, or nil.
func (l *Light) Shadow() *Shadow { return l.shadow }

// Lighting maintains an ambient darkness layer plus named dynamic lights.
// Lights erase the darkness with cached radial gradients, the technique of a
// multiply-blended light layer.
type Lighting struct {
	mon      *Monitor
	settings *AdaptiveSettings
	rng      *rand.Rand

	root     *Node
	shadows  *Node
	layer    *Node
	glows    *Node
	ambient  *ebiten.Image
	w, h     int
	darkness float64

	lights   []*Light
	byID     map[LightID]*Light
	gradient *textureCache
	ellipse  *textureCache
	pixel    *ebiten.Image
	imgOp    ebiten.DrawImageOptions

	destroyed bool
}

// NewLighting creates a lighting manager covering a w x h viewport under
// root. ambient is the base darkness (0 = none, 1 = opaque black).
func NewLighting(root *Node, mon *Monitor, w, h int, ambient float64) *Lighting {
	w = max(w, 1)
	h = max(h, 1)
	lm := &Lighting{
		mon:      mon,
		settings: mon.Settings(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		root:     root,
		w:        w,
		h:        h,
		darkness: clamp01(ambient),
		byID:     make(map[LightID]*Light),
		gradient: newTextureCache(falloffLinear, 1, mon),
		ellipse:  newTextureCache(falloffSmooth, shadowAspect, mon),
	}
	lm.ambient = ebiten.NewImage(w, h)
	lm.pixel = ebiten.NewImage(1, 1)
	lm.pixel.Fill(ColorWhite.RGBA())

	lm.shadows = NewContainer("fx_shadows")
	lm.layer = NewSprite("fx_light_layer", lm.ambient)
	lm.layer.PivotX, lm.layer.PivotY = 0, 0
	lm.layer.BlendMode = BlendMultiply
	lm.glows = NewContainer("fx_glows")
	if root != nil {
		root.AddChild(lm.shadows)
		root.AddChild(lm.layer)
		root.AddChild(lm.glows)
	}
	mon.track(EffectLight, lm.LightCount)
	mon.OnChange(lm.refreshTextures)
	return lm
}

// LightCount returns the number of budgeted lights (point and directional).
func (lm *Lighting) LightCount() int {
	n := 0
	for _, l := range lm.lights {
		if l.Kind != LightGlow {
			n++
		}
	}
	return n
}

// Light returns the light with the given ID.
func (lm *Lighting) Light(id LightID) (*Light, bool) {
	l, ok := lm.byID[id]
	return l, ok
}

// Lights returns lights in creation order. The returned slice MUST NOT be mutated.
func (lm *Lighting) Lights() []*Light {
	return lm.lights
}

// SetAmbient sets the base darkness level.
func (lm *Lighting) SetAmbient(a float64) {
	lm.darkness = clamp01(a)
}

// Ambient returns the base darkness level.
func (lm *Lighting) Ambient() float64 {
	return lm.darkness
}

func (lm *Lighting) add(l *Light) LightID {
	l.ID = LightID(uuid.NewString())
	l.level = l.Intensity
	l.scale = 1
	lm.lights = append(lm.lights, l)
	lm.byID[l.ID] = l
	logger.Debug("light created", "id", l.ID, "kind", l.Kind, "shadow", l.CastsShadow)
	return l.ID
}

// CreatePointLight adds a point light. The radial gradient is rasterized
// once and reused every frame. Returns "" when the light budget is full.
func (lm *Lighting) CreatePointLight(pos Vec2, c Color, intensity, radius float64, opts LightOptions) LightID {
	if lm.destroyed || !lm.mon.CanAddEffect(EffectLight) {
		return ""
	}
	if radius <= 0 {
		radius = 64
	}
	l := &Light{
		Kind:      LightPoint,
		X:         pos.X,
		Y:         pos.Y,
		Color:     c,
		Intensity: clamp01(intensity),
		Radius:    radius,
		Flicker:   opts.Flicker,
		Pulse:     opts.Pulse,
		texture:   lm.gradient.get(radius),
	}
	if opts.Flicker {
		l.flicker = Flicker(orDefault(opts.FlickerSpeed, defaultFlickerSpeed), flickerAmplitude)
	}
	if opts.Pulse {
		l.pulse = Pulse(orDefault(opts.PulseSpeed, defaultPulseSpeed), pulseAmplitude)
	}
	if opts.CastShadows && lm.settings.Shadows {
		lm.attachShadow(l, 0, radius*0.6)
	}
	return lm.add(l)
}

// CreateDirectionalLight adds a light filling the viewport rotated to angle
// (radians). With shadows it casts one large shadow opposite the light.
func (lm *Lighting) CreateDirectionalLight(angle float64, c Color, intensity float64, opts DirectionalOptions) LightID {
	if lm.destroyed || !lm.mon.CanAddEffect(EffectLight) {
		return ""
	}
	l := &Light{
		Kind:      LightDirectional,
		X:         float64(lm.w) / 2,
		Y:         float64(lm.h) / 2,
		Color:     c,
		Intensity: clamp01(intensity),
		Radius:    math.Hypot(float64(lm.w), float64(lm.h)) / 2,
		Angle:     angle,
	}
	if opts.CastShadows && lm.settings.Shadows {
		length := opts.ShadowLength
		if length <= 0 {
			length = l.Radius
		}
		lm.attachShadow(l, angle+math.Pi, length)
	}
	return lm.add(l)
}

// CreateGlow layers three concentric translucent circles at pos that pulse
// continuously. Glows are not budgeted as lights.
func (lm *Lighting) CreateGlow(pos Vec2, c Color, intensity, radius float64) LightID {
	if lm.destroyed {
		return ""
	}
	if radius <= 0 {
		radius = 32
	}
	intensity = clamp01(intensity)
	g := NewContainer("fx_glow")
	g.X, g.Y = pos.X, pos.Y
	for i, f := range [...]float64{1, 0.66, 0.33} {
		circle := NewCircle("fx_glow_ring", radius*f, c.WithAlpha((0.15+0.12*float64(i))*intensity))
		circle.BlendMode = BlendAdd
		g.AddChild(circle)
	}
	lm.glows.AddChild(g)
	l := &Light{
		Kind:      LightGlow,
		X:         pos.X,
		Y:         pos.Y,
		Color:     c,
		Intensity: intensity,
		Radius:    radius,
		Pulse:     true,
		pulse:     Pulse(defaultPulseSpeed, glowPulseAmplitude),
		glow:      g,
	}
	return lm.add(l)
}

// attachShadow creates the light's paired shadow primitive.
func (lm *Lighting) attachShadow(l *Light, angle, length float64) {
	n := NewSprite("fx_shadow", nil)
	n.Color = Color{0, 0, 0, 1}
	n.Alpha = shadowAlpha * l.Intensity
	n.Rotation = angle
	lm.shadows.AddChild(n)
	l.shadow = &Shadow{X: l.X, Y: l.Y, Angle: angle, Length: length, node: n}
	l.CastsShadow = true
	lm.sizeShadow(l.shadow)
	lm.placeShadow(l)
}

// sizeShadow fetches the shadow ellipse at the current texture quality and
// scales the node so it always covers the same scene area.
func (lm *Lighting) sizeShadow(s *Shadow) {
	r := math.Max(s.Length, 8)
	img := lm.ellipse.get(r)
	s.node.SetImage(img)
	b := img.Bounds()
	s.node.ScaleX = 2 * r / float64(b.Dx())
	s.node.ScaleY = 2 * r * shadowAspect / float64(b.Dy())
}

// refreshTextures swaps every light onto textures of the current quality.
func (lm *Lighting) refreshTextures(AdaptiveSettings) {
	if lm.destroyed {
		return
	}
	for _, l := range lm.lights {
		if l.texture != nil {
			l.texture = lm.gradient.get(l.Radius)
		}
		if l.shadow != nil {
			lm.sizeShadow(l.shadow)
		}
	}
}

// placeShadow positions the shadow node: under point lights, and offset
// along the shadow direction for directional lights.
func (lm *Lighting) placeShadow(l *Light) {
	s := l.shadow
	if s == nil {
		return
	}
	s.X, s.Y = l.X, l.Y
	if l.Kind == LightDirectional {
		s.node.X = s.X + math.Cos(s.Angle)*s.Length/2
		s.node.Y = s.Y + math.Sin(s.Angle)*s.Length/2
		return
	}
	s.node.X = s.X
	s.node.Y = s.Y + l.Radius*0.5
}

// Update evaluates flicker and pulse for every light from its own elapsed
// time.
func (lm *Lighting) Update(dt float64) {
	if lm.destroyed {
		return
	}
	for _, l := range lm.lights {
		level := l.Intensity
		scale := 1.0
		if l.Flicker {
			v, _ := l.flicker.Advance(dt, lm.rng)
			level *= v
		}
		if l.Pulse {
			scale, _ = l.pulse.Advance(dt, nil)
		}
		l.level = clamp01(level)
		l.scale = scale
		if l.glow != nil {
			l.glow.ScaleX, l.glow.ScaleY = scale, scale
		}
		if l.shadow != nil {
			l.shadow.node.Alpha = shadowAlpha * l.level
		}
	}
}

// MoveLight repositions a light and its shadow together.
func (lm *Lighting) MoveLight(id LightID, x, y float64) {
	l, ok := lm.byID[id]
	if !ok {
		return
	}
	l.X, l.Y = x, y
	if l.glow != nil {
		l.glow.X, l.glow.Y = x, y
	}
	lm.placeShadow(l)
}

// SetLightIntensity sets a light's base intensity, clamped to [0, 1].
func (lm *Lighting) SetLightIntensity(id LightID, intensity float64) {
	if l, ok := lm.byID[id]; ok {
		l.Intensity = clamp01(intensity)
		l.level = l.Intensity
	}
}

// SetLightColor sets a light's tint.
func (lm *Lighting) SetLightColor(id LightID, c Color) {
	l, ok := lm.byID[id]
	if !ok {
		return
	}
	l.Color = c
	if l.glow != nil {
		for _, circle := range l.glow.Children() {
			circle.Color = c.WithAlpha(circle.Color.A)
		}
	}
}

// RemoveLight detaches a light and its shadow.
func (lm *Lighting) RemoveLight(id LightID) {
	l, ok := lm.byID[id]
	if !ok {
		return
	}
	lm.detach(l)
	delete(lm.byID, id)
	for i, existing := range lm.lights {
		if existing == l {
			lm.lights = append(lm.lights[:i], lm.lights[i+1:]...)
			break
		}
	}
}

func (lm *Lighting) detach(l *Light) {
	if l.shadow != nil {
		l.shadow.node.Dispose()
		l.shadow = nil
	}
	if l.glow != nil {
		l.glow.Dispose()
		l.glow = nil
	}
	l.texture = nil
}

// Clear removes every dynamic light and keeps the ambient layer. Idempotent.
func (lm *Lighting) Clear() {
	for _, l := range lm.lights {
		lm.detach(l)
	}
	clear(lm.lights)
	lm.lights = lm.lights[:0]
	clear(lm.byID)
}

// Redraw fills the ambient layer with darkness and erases each light into
// it, then adds a faint color tint. Call once per frame before drawing.
func (lm *Lighting) Redraw() {
	if lm.destroyed {
		return
	}
	target := lm.ambient
	target.Clear()
	target.Fill(Color{0, 0, 0, lm.darkness}.RGBA())

	op := &lm.imgOp
	for _, l := range lm.lights {
		if l.Kind == LightGlow || l.level <= 0 {
			continue
		}
		img, w, h := lm.lightImage(l)

		lm.setupGeoM(op, l, w, h)
		op.ColorScale.Reset()
		lv := float32(l.level)
		op.ColorScale.Scale(lv, lv, lv, lv)
		op.Blend = BlendErase.EbitenBlend()
		target.DrawImage(img, op)

		c := l.Color
		if c != (Color{}) && c != ColorWhite {
			lm.setupGeoM(op, l, w, h)
			op.ColorScale.Reset()
			ta := float32(l.level * tintStrength)
			op.ColorScale.Scale(float32(c.R)*ta, float32(c.G)*ta, float32(c.B)*ta, ta)
			op.Blend = BlendAdd.EbitenBlend()
			target.DrawImage(img, op)
		}
	}
}

// lightImage returns the source image for a light and its desired size.
func (lm *Lighting) lightImage(l *Light) (*ebiten.Image, float64, float64) {
	if l.Kind == LightDirectional {
		d := l.Radius * 2
		return lm.pixel, d, d
	}
	d := l.Radius * 2 * l.scale
	return l.texture, d, d
}

// setupGeoM centers a light image of the desired size on the light, rotated
// by its angle.
func (lm *Lighting) setupGeoM(op *ebiten.DrawImageOptions, l *Light, w, h float64) {
	op.GeoM.Reset()
	b := lm.pixel.Bounds()
	if l.texture != nil && l.Kind != LightDirectional {
		b = l.texture.Bounds()
	}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(-w/2, -h/2)
	if l.Angle != 0 {
		op.GeoM.Rotate(l.Angle)
	}
	op.GeoM.Translate(l.X, l.Y)
}

// Destroy removes every light and detaches all containers from the host.
func (lm *Lighting) Destroy() {
	if lm.destroyed {
		return
	}
	lm.Clear()
	lm.destroyed = true
	lm.shadows.Dispose()
	lm.layer.Dispose()
	lm.glows.Dispose()
	lm.gradient.dispose()
	lm.ellipse.dispose()
	lm.ambient.Deallocate()
	lm.pixel.Deallocate()
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
