package fx

import (
	"image/color"
	"slices"
	"testing"
	"testing/fstest"
)

const testSymbolsYAML = `
texture: sheet.png
frame_width: 16
symbols:
  - name: coin
    row: 0
    frames: 4
    fps: 8
    loop: true
  - name: trophy
    row: 1
    frames: 4
    fps: 8
  - name: ghost
    row: 9
    frames: 2
`

// newTestAtlas loads a 64x32 sheet: two rows of four 16px frames.
func newTestAtlas(t *testing.T) (*SpriteAtlas, *Node) {
	t.Helper()
	set, err := ParseSymbols([]byte(testSymbolsYAML))
	if err != nil {
		t.Fatalf("ParseSymbols: %v", err)
	}
	fsys := fstest.MapFS{"sheet.png": {Data: encodePNG(t, 64, 32, color.White)}}
	root := NewContainer("root")
	return NewSpriteAtlas(root, NewMonitor(desktopCaps()), NewFSAssets(fsys), set), root
}

func TestAtlasFallbackWithoutAssets(t *testing.T) {
	for name, src := range map[string]AssetSource{
		"nil":   nil,
		"empty": NewFSAssets(fstest.MapFS{}),
	} {
		sa := NewSpriteAtlas(NewContainer("root"), NewMonitor(desktopCaps()), src, DefaultSymbols())
		if !sa.Fallback() {
			t.Errorf("%s: expected fallback mode", name)
		}
		for _, sym := range DefaultSymbols().Symbols {
			if !sa.IsSymbolLoaded(sym.Name) {
				t.Errorf("%s: %s not loaded", name, sym.Name)
			}
			s := sa.CreateAnimatedSprite(sym.Name, SpriteOptions{})
			if s == nil || !s.Static() {
				t.Fatalf("%s: %s should yield a static sprite", name, sym.Name)
			}
			if s.Node.Image == nil {
				t.Errorf("%s: %s has no frame", name, sym.Name)
			}
		}
	}
}

func TestAtlasFallbackUsesStandaloneFrame(t *testing.T) {
	fsys := fstest.MapFS{"coin.png": {Data: encodePNG(t, 10, 10, color.White)}}
	sa := NewSpriteAtlas(nil, NewMonitor(desktopCaps()), NewFSAssets(fsys), DefaultSymbols())
	anim, _ := sa.Animation("coin")
	if b := anim.Frames[0].Bounds(); b.Dx() != 10 {
		t.Errorf("coin frame width = %d, want the standalone 10px image", b.Dx())
	}
	if anim, _ := sa.Animation("gem"); anim.Frames[0] != ensurePlaceholder() {
		t.Error("gem should use the placeholder")
	}
}

func TestAtlasSlicesGrid(t *testing.T) {
	sa, _ := newTestAtlas(t)
	if sa.Fallback() {
		t.Fatal("sheet should load")
	}
	coin, _ := sa.Animation("coin")
	if len(coin.Frames) != 4 || coin.Static {
		t.Fatalf("coin frames = %d static %v", len(coin.Frames), coin.Static)
	}
	if b := coin.Frames[2].Bounds(); b.Min.X != 32 || b.Dx() != 16 {
		t.Errorf("frame 2 bounds = %v", b)
	}
	ghost, _ := sa.Animation("ghost")
	if !ghost.Static {
		t.Error("symbol outside the sheet should fall back to a static frame")
	}
}

func TestAvailableSymbolsSorted(t *testing.T) {
	sa, _ := newTestAtlas(t)
	got := sa.AvailableSymbols()
	want := []string{"coin", "ghost", "trophy"}
	if !slices.Equal(got, want) {
		t.Errorf("AvailableSymbols = %v, want %v", got, want)
	}
	if sa.CreateAnimatedSprite("dragon", SpriteOptions{}) != nil {
		t.Error("unknown symbol should return nil")
	}
	if sa.CreateStaticSprite("dragon") != nil {
		t.Error("unknown static symbol should return nil")
	}
}

func TestSpritesKeepIndependentCursors(t *testing.T) {
	sa, _ := newTestAtlas(t)
	a := sa.CreateAnimatedSprite("coin", SpriteOptions{})
	sa.Update(0.125)
	b := sa.CreateAnimatedSprite("coin", SpriteOptions{})
	sa.Update(0.125)

	if a.Frame() != 2 || b.Frame() != 1 {
		t.Errorf("frames = %d, %d, want 2, 1", a.Frame(), b.Frame())
	}
	b.Stop()
	sa.Update(0.125)
	if a.Frame() != 3 || b.Frame() != 1 {
		t.Errorf("after stop: frames = %d, %d, want 3, 1", a.Frame(), b.Frame())
	}
	sa.Update(0.125)
	if a.Frame() != 0 {
		t.Errorf("looping sprite frame = %d, want wrap to 0", a.Frame())
	}
}

func TestSpriteSpeedMultiplier(t *testing.T) {
	sa, _ := newTestAtlas(t)
	s := sa.CreateAnimatedSprite("coin", SpriteOptions{Speed: 2})
	sa.Update(0.125)
	if s.Frame() != 2 {
		t.Errorf("frame = %d, want 2 at double speed", s.Frame())
	}
}

func TestSpriteOnceAutoDispose(t *testing.T) {
	sa, root := newTestAtlas(t)
	s := sa.CreateAnimatedSprite("coin", SpriteOptions{Once: true, AutoDispose: true, Parent: root})
	if root.NumChildren() != 1 {
		t.Fatal("sprite should attach to the parent")
	}
	for i := 0; i < 3; i++ {
		sa.Update(0.125)
	}
	if s.Done() {
		t.Fatal("finished early")
	}
	sa.Update(0.125)
	if !s.Done() || !s.Node.IsDisposed() {
		t.Errorf("done=%v disposed=%v after one run", s.Done(), s.Node.IsDisposed())
	}
	if s.Frame() != 3 {
		t.Errorf("final frame = %d, want 3", s.Frame())
	}
	if sa.SpriteCount() != 0 || root.NumChildren() != 0 {
		t.Errorf("sprites %d, root children %d after auto dispose", sa.SpriteCount(), root.NumChildren())
	}
}

func TestNonLoopingSpriteHoldsLastFrame(t *testing.T) {
	sa, _ := newTestAtlas(t)
	s := sa.CreateAnimatedSprite("trophy", SpriteOptions{})
	for i := 0; i < 6; i++ {
		sa.Update(0.125)
	}
	if !s.Done() || s.Frame() != 3 || s.Node.IsDisposed() {
		t.Errorf("done=%v frame=%d disposed=%v", s.Done(), s.Frame(), s.Node.IsDisposed())
	}
	if sa.SpriteCount() != 0 {
		t.Errorf("SpriteCount = %d, finished sprites should not stay tracked", sa.SpriteCount())
	}
	s.Play()
	if s.Done() || s.Frame() != 0 || !s.Playing() {
		t.Error("Play should restart a finished sprite")
	}
	if sa.SpriteCount() != 1 {
		t.Fatalf("SpriteCount = %d after Play, want 1", sa.SpriteCount())
	}
	sa.Update(0.125)
	if s.Frame() != 1 {
		t.Errorf("frame = %d after restart, want 1", s.Frame())
	}
}

func TestFinishedSpritesDoNotAccumulate(t *testing.T) {
	sa, _ := newTestAtlas(t)
	for i := 0; i < 50; i++ {
		sa.CreateAnimatedSprite("trophy", SpriteOptions{})
		sa.Update(0.125)
	}
	for i := 0; i < 4; i++ {
		sa.Update(0.125)
	}
	if sa.SpriteCount() != 0 {
		t.Errorf("SpriteCount = %d, want 0 once every run finished", sa.SpriteCount())
	}
}

func TestSpriteDroppedWhenNodeDisposed(t *testing.T) {
	sa, _ := newTestAtlas(t)
	s := sa.CreateAnimatedSprite("coin", SpriteOptions{})
	s.Node.Dispose()
	sa.Update(0.125)
	if sa.SpriteCount() != 0 {
		t.Errorf("SpriteCount = %d, want 0", sa.SpriteCount())
	}
}

func TestOverlaysDetachWhenDone(t *testing.T) {
	root := NewContainer("root")
	sa := NewSpriteAtlas(root, NewMonitor(desktopCaps()), nil, DefaultSymbols())
	sa.SetOverlayOrigin(640, 360)

	win := sa.CreateWinAnimation()
	combo := sa.CreateComboAnimation(5)
	level := sa.CreateLevelUpAnimation(3)
	if sa.OverlayCount() != 3 || root.NumChildren() != 3 {
		t.Fatalf("overlays %d, root children %d", sa.OverlayCount(), root.NumChildren())
	}
	if n := win.Node(); n.X != 640 || n.Y != 360 || n.ScaleX != 0 {
		t.Errorf("overlay starts at (%v, %v) scale %v", n.X, n.Y, n.ScaleX)
	}
	if combo.Node().NumChildren() != 2 {
		t.Errorf("combo children = %d, want sprite and label", combo.Node().NumChildren())
	}
	if label := combo.Node().Children()[1]; label.Label != "x5" {
		t.Errorf("combo label = %q", label.Label)
	}
	if label := level.Node().Children()[1]; label.Label != "LEVEL 3" {
		t.Errorf("level label = %q", label.Label)
	}

	for i := 0; i < 60; i++ {
		sa.Update(1.0 / 60)
	}
	if win.Done() {
		t.Fatal("overlay finished before its hold ended")
	}
	for i := 0; i < 70; i++ {
		sa.Update(1.0 / 60)
	}
	for _, o := range []Overlay{win, combo, level} {
		if !o.Done() {
			t.Error("overlay should be done after its sequence")
		}
	}
	if sa.OverlayCount() != 0 || root.NumChildren() != 0 {
		t.Errorf("overlays %d, root children %d after finishing", sa.OverlayCount(), root.NumChildren())
	}
}

func TestOverlayWaitsForFrameRun(t *testing.T) {
	set, err := ParseSymbols([]byte(`
texture: sheet.png
frame_width: 16
symbols:
  - name: trophy
    row: 0
    frames: 4
    fps: 2
    loop: true
`))
	if err != nil {
		t.Fatalf("ParseSymbols: %v", err)
	}
	fsys := fstest.MapFS{"sheet.png": {Data: encodePNG(t, 64, 16, color.White)}}
	root := NewContainer("root")
	sa := NewSpriteAtlas(root, NewMonitor(desktopCaps()), NewFSAssets(fsys), set)

	win := sa.CreateWinAnimation()
	sprite := win.Node().Children()[0]
	frames, _ := sa.Animation("trophy")
	// Four frames at 2 fps run for two seconds, past the usual 1.6 s.
	for i := 0; i < 130; i++ {
		sa.Update(1.0 / 60)
	}
	if win.Done() {
		t.Fatal("overlay detached before its frame run finished")
	}
	for i := 0; i < 70; i++ {
		sa.Update(1.0 / 60)
	}
	if !win.Done() || root.NumChildren() != 0 {
		t.Errorf("done=%v root children %d", win.Done(), root.NumChildren())
	}
	if sprite.Image != frames.Frames[3] {
		t.Error("looping symbol should play once and stop on its last frame")
	}
}

func TestAtlasClearAndDestroy(t *testing.T) {
	root := NewContainer("root")
	sa := NewSpriteAtlas(root, NewMonitor(desktopCaps()), nil, DefaultSymbols())
	sa.CreateWinAnimation()
	sa.CreateAnimatedSprite("coin", SpriteOptions{})
	sa.Clear()
	sa.Clear()
	if sa.OverlayCount() != 0 || sa.SpriteCount() != 0 || root.NumChildren() != 0 {
		t.Error("Clear should drop overlays and sprites")
	}
	sa.Destroy()
	if sa.CreateAnimatedSprite("coin", SpriteOptions{}) != nil {
		t.Error("destroyed atlas should not create sprites")
	}
	if !sa.CreateWinAnimation().Done() {
		t.Error("destroyed atlas overlay should report done")
	}
}
