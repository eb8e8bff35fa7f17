package fx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrAssetLoad is wrapped by every asset decoding failure.
var ErrAssetLoad = errors.New("fx: asset load failed")

// AssetSource resolves named assets for the sprite atlas.
type AssetSource interface {
	// Bytes returns the raw contents of name.
	Bytes(name string) ([]byte, error)
	// Image decodes name into an ebiten image.
	Image(name string) (*ebiten.Image, error)
}

// FSAssets serves assets from an fs.FS (an embed.FS, os.DirFS or
// fstest.MapFS).
type FSAssets struct {
	fsys fs.FS
}

// NewFSAssets wraps fsys as an AssetSource.
func NewFSAssets(fsys fs.FS) *FSAssets {
	return &FSAssets{fsys: fsys}
}

// Bytes reads name from the file system.
func (a *FSAssets) Bytes(name string) ([]byte, error) {
	if a == nil || a.fsys == nil {
		return nil, fmt.Errorf("%w: %s: no file system", ErrAssetLoad, name)
	}
	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetLoad, name, err)
	}
	return data, nil
}

// Image reads and decodes name. PNG is registered; other formats need their
// decoder imported by the caller.
func (a *FSAssets) Image(name string) (*ebiten.Image, error) {
	data, err := a.Bytes(name)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrAssetLoad, name, err)
	}
	return ebiten.NewImageFromImage(img), nil
}
