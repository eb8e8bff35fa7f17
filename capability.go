package fx

import (
	"errors"
	"runtime"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrNoBackend is returned by a ProbeContext opener when no rendering
// backend can be reached. Probe turns it into NoBackend().
var ErrNoBackend = errors.New("fx: no rendering backend")

// GPUTier is a coarse, best-effort GPU memory class.
type GPUTier uint8

const (
	GPUTierLow GPUTier = iota
	GPUTierMedium
	GPUTierHigh
)

func (t GPUTier) String() string {
	switch t {
	case GPUTierHigh:
		return "high"
	case GPUTierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Capabilities is the immutable result of a one-shot device probe.
type Capabilities struct {
	Backend         bool
	GraphicsLibrary string
	Renderer        string
	MaxTextureSize  int
	Anisotropic     bool
	GPUTier         GPUTier
	ScreenWidth     int
	ScreenHeight    int
	Mobile          bool
	PixelRatio      float64
}

// LowResolution reports whether the logical screen is smaller than 1280x720.
func (c Capabilities) LowResolution() bool {
	return c.ScreenWidth*c.ScreenHeight < 1280*720
}

// NoBackend returns the descriptor used when the probe context cannot be
// created. Engines built from it stay clamped to the lowest tier.
func NoBackend() Capabilities {
	return Capabilities{
		GPUTier:    GPUTierLow,
		PixelRatio: 1,
	}
}

// ProbeContext exposes what a rendering backend can tell about the device.
type ProbeContext interface {
	GraphicsLibrary() string
	RendererName() string
	MaxTextureSize() int
	AnisotropicFiltering() bool
	ScreenSize() (w, h int)
	DeviceScaleFactor() float64
	Mobile() bool
}

// Probe opens a probe context once and returns the device capabilities.
// A failing opener yields NoBackend(); the failure is logged, never returned.
func Probe(open func() (ProbeContext, error)) Capabilities {
	if open == nil {
		return NoBackend()
	}
	ctx, err := open()
	if err != nil || ctx == nil {
		logger.Warn("rendering backend unavailable, clamping to lowest tier", "err", err)
		return NoBackend()
	}

	w, h := ctx.ScreenSize()
	ratio := ctx.DeviceScaleFactor()
	if ratio <= 0 {
		ratio = 1
	}
	renderer := ctx.RendererName()
	caps := Capabilities{
		Backend:         true,
		GraphicsLibrary: ctx.GraphicsLibrary(),
		Renderer:        renderer,
		MaxTextureSize:  ctx.MaxTextureSize(),
		Anisotropic:     ctx.AnisotropicFiltering(),
		GPUTier:         classifyRenderer(renderer),
		ScreenWidth:     w,
		ScreenHeight:    h,
		Mobile:          ctx.Mobile(),
		PixelRatio:      ratio,
	}
	logger.Debug("device probed",
		"library", caps.GraphicsLibrary,
		"renderer", caps.Renderer,
		"tier", caps.GPUTier,
		"screen", [2]int{w, h},
		"mobile", caps.Mobile)
	return caps
}

// rendererClasses maps renderer-name keywords to GPU tiers. The highest
// matching tier wins, so adding a capable keyword to a name can only raise
// its class.
var rendererClasses = []struct {
	tier     GPUTier
	keywords []string
}{
	{GPUTierLow, []string{"llvmpipe", "swiftshader", "software", "intel hd", "mali-4", "mali-t", "adreno 3", "adreno 4", "powervr"}},
	{GPUTierMedium, []string{"uhd", "iris", "mali-g", "adreno 5", "adreno 6", "geforce", "radeon"}},
	{GPUTierHigh, []string{"rtx", "radeon rx", "radeon pro", "apple m", "geforce gtx", "quadro", "arc a", "adreno 7"}},
}

// classifyRenderer infers a coarse GPU tier from a renderer name. Unknown or
// empty names classify as medium when a backend exists.
func classifyRenderer(name string) GPUTier {
	s := strings.ToLower(name)
	if s == "" {
		return GPUTierMedium
	}
	best := GPUTierLow
	matched := false
	for _, class := range rendererClasses {
		for _, kw := range class.keywords {
			if strings.Contains(s, kw) {
				matched = true
				if class.tier > best {
					best = class.tier
				}
			}
		}
	}
	if !matched {
		return GPUTierMedium
	}
	return best
}

// ebitenProbe reads device information from a running Ebitengine game.
type ebitenProbe struct {
	library  string
	renderer string
}

// EbitenProbe opens a ProbeContext backed by Ebitengine. The graphics
// library is only known once the game loop has started, so call Probe with
// it from the first Update. Ebitengine does not expose the driver's renderer
// string; the graphics library name stands in for it.
func EbitenProbe() (ProbeContext, error) {
	var info ebiten.DebugInfo
	ebiten.ReadDebugInfo(&info)
	if info.GraphicsLibrary == ebiten.GraphicsLibraryUnknown {
		return nil, ErrNoBackend
	}
	lib := info.GraphicsLibrary.String()
	return &ebitenProbe{library: lib, renderer: lib}, nil
}

func (p *ebitenProbe) GraphicsLibrary() string { return p.library }
func (p *ebitenProbe) RendererName() string    { return p.renderer }

func (p *ebitenProbe) MaxTextureSize() int {
	if p.Mobile() {
		return 4096
	}
	return 8192
}

// AnisotropicFiltering is always false: Ebitengine offers nearest, linear and
// pixelated filters only.
func (p *ebitenProbe) AnisotropicFiltering() bool { return false }

func (p *ebitenProbe) ScreenSize() (int, int) {
	if m := ebiten.Monitor(); m != nil {
		return m.Size()
	}
	return ebiten.WindowSize()
}

func (p *ebitenProbe) DeviceScaleFactor() float64 {
	if m := ebiten.Monitor(); m != nil {
		return m.DeviceScaleFactor()
	}
	return 1
}

func (p *ebitenProbe) Mobile() bool {
	return runtime.GOOS == "android" || runtime.GOOS == "ios"
}
