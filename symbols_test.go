package fx

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestDefaultSymbols(t *testing.T) {
	set := DefaultSymbols()
	if len(set.Symbols) != 8 {
		t.Fatalf("symbols = %d, want 8", len(set.Symbols))
	}
	if set.Texture != "symbols.png" || set.FrameWidth != 64 || set.FrameHeight != 64 {
		t.Errorf("set = %q %dx%d", set.Texture, set.FrameWidth, set.FrameHeight)
	}
	for _, d := range set.Symbols {
		if d.Frames < 1 || d.FPS <= 0 {
			t.Errorf("%s: frames %d fps %v", d.Name, d.Frames, d.FPS)
		}
	}
}

func TestParseSymbolsDefaults(t *testing.T) {
	set, err := ParseSymbols([]byte(`
texture: sheet.png
frame_width: 32
symbols:
  - name: coin
  - name: star
    frames: 4
    fps: 20
  - name: gem
    frames: 9
    regions: [gem_a, gem_b]
`))
	if err != nil {
		t.Fatalf("ParseSymbols: %v", err)
	}
	if set.FrameHeight != 32 {
		t.Errorf("FrameHeight = %d, want 32", set.FrameHeight)
	}
	coin, star, gem := set.Symbols[0], set.Symbols[1], set.Symbols[2]
	if coin.Frames != 1 || coin.FPS != defaultSymbolFPS {
		t.Errorf("coin = %+v", coin)
	}
	if star.Frames != 4 || star.FPS != 20 {
		t.Errorf("star = %+v", star)
	}
	if gem.Frames != 2 {
		t.Errorf("gem frames = %d, want 2 from regions", gem.Frames)
	}
}

func TestParseSymbolsRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate", "symbols:\n  - name: coin\n  - name: coin\n"},
		{"unnamed", "symbols:\n  - row: 2\n"},
		{"malformed", "symbols: [\n"},
	}
	for _, tt := range tests {
		if _, err := ParseSymbols([]byte(tt.data)); !errors.Is(err, ErrAssetLoad) {
			t.Errorf("%s: err = %v, want ErrAssetLoad", tt.name, err)
		}
	}
}

func TestLoadSymbols(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.yaml": {Data: []byte("symbols:\n  - name: badge\n    frames: 3\n")},
		"broken.yaml": {Data: []byte("symbols:\n  - name: a\n  - name: a\n")},
	}
	src := NewFSAssets(fsys)

	set, err := LoadSymbols(src, "custom.yaml")
	if err != nil {
		t.Fatalf("LoadSymbols: %v", err)
	}
	if len(set.Symbols) != 1 || set.Symbols[0].Name != "badge" {
		t.Errorf("symbols = %+v", set.Symbols)
	}

	for _, name := range []string{"broken.yaml", "missing.yaml"} {
		set, err := LoadSymbols(src, name)
		if !errors.Is(err, ErrAssetLoad) {
			t.Errorf("%s: err = %v, want ErrAssetLoad", name, err)
		}
		if len(set.Symbols) != 8 {
			t.Errorf("%s: fallback has %d symbols, want the default 8", name, len(set.Symbols))
		}
	}

	if set, err := LoadSymbols(nil, "custom.yaml"); err != nil || len(set.Symbols) != 8 {
		t.Errorf("nil source: %d symbols, err %v", len(set.Symbols), err)
	}
}
