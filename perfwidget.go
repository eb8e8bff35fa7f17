package fx

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const perfRefresh = 0.5 // seconds between redraws

// PerfWidget is a small HUD sprite showing the monitor's last sample, tier
// and live budgets. It redraws about twice a second.
type PerfWidget struct {
	Node *Node

	mon   *Monitor
	img   *ebiten.Image
	since float64
	text  string
}

// NewPerfWidget creates the widget. Add Node to the scene and call Update
// once per frame; Engine does both when given the widget.
func NewPerfWidget(mon *Monitor) *PerfWidget {
	img := ebiten.NewImage(180, 64)
	n := NewSprite("fx_perf_widget", img)
	n.PivotX, n.PivotY = 0, 0
	w := &PerfWidget{Node: n, mon: mon, img: img}
	w.since = perfRefresh
	return w
}

// Text returns the last rendered text.
func (w *PerfWidget) Text() string { return w.text }

// Update redraws the widget when the refresh interval has elapsed.
func (w *PerfWidget) Update(dt float64) {
	w.since += dt
	if w.since < perfRefresh {
		return
	}
	w.since = 0

	s := w.mon.Settings()
	w.text = fmt.Sprintf("FPS: %.1f  %s\nParticles: %d/%d\nLights: %d/%d",
		w.mon.LastSample().FPS, w.mon.Tier(),
		w.mon.Live(EffectParticle), s.MaxParticles,
		w.mon.Live(EffectLight), s.MaxLights)

	w.img.Clear()
	w.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(w.img, w.text)
}
