package fx

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// falloff selects the alpha curve of a generated radial texture.
type falloff uint8

const (
	falloffSmooth falloff = iota // smoothstep: 1 at center, 0 at edge
	falloffLinear                // linear ramp, used for light gradients
)

// generateRadial creates a white radial texture with the given radius and
// falloff, stretched vertically by aspect (1 = circle). Premultiplied alpha.
func generateRadial(radius float64, fo falloff, aspect float64) *ebiten.Image {
	if aspect <= 0 {
		aspect = 1
	}
	w := int(math.Ceil(radius * 2))
	if w < 1 {
		w = 1
	}
	h := int(math.Ceil(radius * 2 * aspect))
	if h < 1 {
		h = 1
	}
	img := ebiten.NewImage(w, h)
	pix := make([]byte, w*h*4)

	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - cx) / radius
			dy := (float64(y) + 0.5 - cy) / (radius * aspect)
			dist := math.Sqrt(dx*dx + dy*dy)

			var alpha float64
			if dist < 1 {
				switch fo {
				case falloffLinear:
					alpha = 1 - dist
				default:
					t := 1 - dist
					alpha = t * t * (3 - 2*t)
				}
			}

			a := uint8(alpha * 255)
			off := (y*w + x) * 4
			pix[off+0] = a // premultiplied white
			pix[off+1] = a
			pix[off+2] = a
			pix[off+3] = a
		}
	}
	img.WritePixels(pix)
	return img
}

// textureCache holds generated textures keyed by their generated radius so
// effects of similar size share one image. With a monitor, resolution
// follows the current texture quality.
type textureCache struct {
	kind   falloff
	aspect float64
	mon    *Monitor
	images map[int]*ebiten.Image
}

func newTextureCache(kind falloff, aspect float64, mon *Monitor) *textureCache {
	return &textureCache{kind: kind, aspect: aspect, mon: mon, images: make(map[int]*ebiten.Image)}
}

// get returns a cached texture for a radius in scene pixels, generating one
// if it doesn't exist. Callers scale the image to the radius they draw.
func (tc *textureCache) get(radius float64) *ebiten.Image {
	key := textureRadius(radius, tc.mon)
	if img, ok := tc.images[key]; ok {
		return img
	}
	img := generateRadial(float64(key), tc.kind, tc.aspect)
	tc.images[key] = img
	return img
}

// textureRadius converts a scene radius into the radius of the generated
// image: scaled by texture quality, bounded by the device texture size and
// quantized to a whole pixel.
func textureRadius(radius float64, mon *Monitor) int {
	if mon != nil {
		radius *= mon.TextureScale()
		if limit := mon.Capabilities().MaxTextureSize; limit > 0 {
			radius = math.Min(radius, float64(limit/2))
		}
	}
	key := int(math.Ceil(radius))
	if key < 1 {
		key = 1
	}
	return key
}

// dispose deallocates every cached texture.
func (tc *textureCache) dispose() {
	for _, img := range tc.images {
		img.Deallocate()
	}
	tc.images = make(map[int]*ebiten.Image)
}

// placeholderImage is created on first use; fx runs on the game goroutine.
var placeholderImage *ebiten.Image

// ensurePlaceholder returns a 16x16 magenta square used when neither the
// atlas nor a per-symbol fallback asset could be loaded.
func ensurePlaceholder() *ebiten.Image {
	if placeholderImage == nil {
		placeholderImage = ebiten.NewImage(16, 16)
		placeholderImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return placeholderImage
}
