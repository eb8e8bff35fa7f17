package fx

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed symbols.yaml
var defaultSymbolsYAML []byte

const defaultSymbolFPS = 12

// SymbolDef configures one named animation. Frames are read left to right
// from Row of the base texture unless Regions names atlas regions.
type SymbolDef struct {
	Name    string   `yaml:"name"`
	Row     int      `yaml:"row"`
	Column  int      `yaml:"column"`
	Frames  int      `yaml:"frames"`
	FPS     float64  `yaml:"fps"`
	Loop    bool     `yaml:"loop"`
	Regions []string `yaml:"regions"`
}

// SymbolSet describes the base texture and every symbol sliced from it.
type SymbolSet struct {
	Texture     string      `yaml:"texture"`
	Atlas       string      `yaml:"atlas"` // optional TexturePacker JSON
	FrameWidth  int         `yaml:"frame_width"`
	FrameHeight int         `yaml:"frame_height"`
	Symbols     []SymbolDef `yaml:"symbols"`
}

// ParseSymbols decodes and validates a YAML symbol set.
func ParseSymbols(data []byte) (SymbolSet, error) {
	var set SymbolSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return set, fmt.Errorf("%w: symbols: %w", ErrAssetLoad, err)
	}
	if err := set.normalize(); err != nil {
		return set, err
	}
	return set, nil
}

// DefaultSymbols returns the embedded symbol set.
func DefaultSymbols() SymbolSet {
	set, err := ParseSymbols(defaultSymbolsYAML)
	if err != nil {
		logger.Error("embedded symbol set invalid", "err", err)
		return SymbolSet{}
	}
	return set
}

// LoadSymbols reads a symbol set from src. An empty name, or any read or
// parse failure, yields the embedded default; the failure is returned
// alongside it so callers can log it.
func LoadSymbols(src AssetSource, name string) (SymbolSet, error) {
	if name == "" || src == nil {
		return DefaultSymbols(), nil
	}
	data, err := src.Bytes(name)
	if err != nil {
		return DefaultSymbols(), err
	}
	set, err := ParseSymbols(data)
	if err != nil {
		return DefaultSymbols(), fmt.Errorf("%s: %w", name, err)
	}
	return set, nil
}

// normalize fills defaults and rejects unusable definitions.
func (s *SymbolSet) normalize() error {
	if s.FrameWidth <= 0 {
		s.FrameWidth = 64
	}
	if s.FrameHeight <= 0 {
		s.FrameHeight = s.FrameWidth
	}
	seen := make(map[string]bool, len(s.Symbols))
	for i := range s.Symbols {
		d := &s.Symbols[i]
		if d.Name == "" {
			return fmt.Errorf("%w: symbol %d has no name", ErrAssetLoad, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate symbol %q", ErrAssetLoad, d.Name)
		}
		seen[d.Name] = true
		if len(d.Regions) > 0 {
			d.Frames = len(d.Regions)
		}
		if d.Frames <= 0 {
			d.Frames = 1
		}
		if d.FPS <= 0 {
			d.FPS = defaultSymbolFPS
		}
	}
	return nil
}
