package fx

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Region is a named sub-rectangle of an atlas page.
type Region struct {
	Page    int
	X, Y    int
	Width   int
	Height  int
	Rotated bool // stored 90 degrees clockwise; drawn as stored
}

// Atlas holds atlas page images and the named regions sliced from them.
type Atlas struct {
	Pages   []*ebiten.Image
	regions map[string]Region
}

// Region returns the region stored under name.
func (a *Atlas) Region(name string) (Region, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Len returns the number of regions.
func (a *Atlas) Len() int {
	return len(a.regions)
}

// Frame returns the sub-image for name, or false when the region is missing
// or its page is not loaded.
func (a *Atlas) Frame(name string) (*ebiten.Image, bool) {
	r, ok := a.regions[name]
	if !ok || r.Page < 0 || r.Page >= len(a.Pages) || a.Pages[r.Page] == nil {
		return nil, false
	}
	return subImage(a.Pages[r.Page], image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
}

// subImage clips rect to the page and returns the sub-image, or false when
// nothing of rect lies inside the page.
func subImage(page *ebiten.Image, rect image.Rectangle) (*ebiten.Image, bool) {
	rect = rect.Intersect(page.Bounds())
	if rect.Empty() {
		return nil, false
	}
	return page.SubImage(rect).(*ebiten.Image), true
}

// LoadAtlas parses TexturePacker JSON and associates the given page images.
// Both the hash format (one "frames" object) and the array format
// ("textures" list with per-page frames) are accepted.
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("%w: atlas JSON: %w", ErrAssetLoad, err)
	}

	atlas := &Atlas{Pages: pages, regions: make(map[string]Region)}
	switch {
	case probe.Textures != nil:
		var textures []struct {
			Image  string               `json:"image"`
			Frames map[string]jsonFrame `json:"frames"`
		}
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, fmt.Errorf("%w: atlas textures: %w", ErrAssetLoad, err)
		}
		for i, tex := range textures {
			for name, f := range tex.Frames {
				atlas.regions[name] = f.region(i)
			}
		}
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("%w: atlas frames: %w", ErrAssetLoad, err)
		}
		for name, f := range frames {
			atlas.regions[name] = f.region(0)
		}
	default:
		return nil, fmt.Errorf("%w: atlas JSON has neither \"frames\" nor \"textures\"", ErrAssetLoad)
	}
	return atlas, nil
}

type jsonFrame struct {
	Frame struct {
		X int `json:"x"`
		Y int `json:"y"`
		W int `json:"w"`
		H int `json:"h"`
	} `json:"frame"`
	Rotated bool `json:"rotated"`
}

func (f jsonFrame) region(page int) Region {
	return Region{
		Page:    page,
		X:       f.Frame.X,
		Y:       f.Frame.Y,
		Width:   f.Frame.W,
		Height:  f.Frame.H,
		Rotated: f.Rotated,
	}
}
