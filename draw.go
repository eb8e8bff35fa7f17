package fx

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// DrawOptions controls a tree draw pass.
type DrawOptions struct {
	// Antialias enables antialiased vector shapes. Engine passes the current
	// AdaptiveSettings.Antialias.
	Antialias bool
}

// drawState carries reusable buffers across one traversal.
type drawState struct {
	dst   *ebiten.Image
	aa    bool
	imgOp ebiten.DrawImageOptions
	txtOp text.DrawOptions
}

// DrawTree draws root and its descendants onto dst in painter's order
// (children after their parent, siblings in insertion order).
func DrawTree(dst *ebiten.Image, root *Node, opts DrawOptions) {
	if root == nil || root.disposed {
		return
	}
	ds := &drawState{dst: dst, aa: opts.Antialias}
	parent := identityTransform
	alpha := 1.0
	if root.Parent != nil {
		parent = root.Parent.worldTransform()
	}
	ds.traverse(root, parent, alpha)
}

func (ds *drawState) traverse(n *Node, parentTransform [6]float64, parentAlpha float64) {
	if !n.Visible {
		return
	}
	world := multiplyAffine(parentTransform, computeLocalTransform(n))
	alpha := parentAlpha * n.Alpha
	if alpha <= 0 {
		return
	}

	switch n.Type {
	case NodeTypeSprite:
		ds.drawSprite(n, world, alpha)
	case NodeTypeCircle:
		cx, cy := transformPoint(world, n.PivotX, n.PivotY)
		r := n.Radius * uniformScale(world)
		vector.DrawFilledCircle(ds.dst, float32(cx), float32(cy), float32(r), n.Color.WithAlpha(n.Color.A*alpha).RGBA(), ds.aa)
	case NodeTypeRing:
		cx, cy := transformPoint(world, n.PivotX, n.PivotY)
		s := uniformScale(world)
		vector.StrokeCircle(ds.dst, float32(cx), float32(cy), float32(n.Radius*s), float32(n.Thickness*s), n.Color.WithAlpha(n.Color.A*alpha).RGBA(), ds.aa)
	case NodeTypePolyline:
		ds.drawPolyline(n, world, alpha)
	case NodeTypeText:
		ds.drawLabel(n, world, alpha)
	case NodeTypeParticles:
		if n.emitter != nil {
			n.emitter.draw(ds, world, alpha)
		}
	}

	for _, child := range n.children {
		ds.traverse(child, world, alpha)
	}
}

func (ds *drawState) drawSprite(n *Node, world [6]float64, alpha float64) {
	if n.Image == nil {
		return
	}
	op := &ds.imgOp
	op.GeoM.Reset()
	setGeoM(&op.GeoM, world)
	op.ColorScale.Reset()
	a := float32(n.Color.A * alpha)
	op.ColorScale.Scale(float32(n.Color.R)*a, float32(n.Color.G)*a, float32(n.Color.B)*a, a)
	op.Blend = n.BlendMode.EbitenBlend()
	op.Filter = ebiten.FilterLinear
	ds.dst.DrawImage(n.Image, op)
}

func (ds *drawState) drawPolyline(n *Node, world [6]float64, alpha float64) {
	if len(n.Points) < 2 {
		return
	}
	clr := n.Color.WithAlpha(n.Color.A * alpha).RGBA()
	w := float32(n.Thickness * uniformScale(world))
	x0, y0 := transformPoint(world, n.Points[0].X, n.Points[0].Y)
	for _, p := range n.Points[1:] {
		x1, y1 := transformPoint(world, p.X, p.Y)
		vector.StrokeLine(ds.dst, float32(x0), float32(y0), float32(x1), float32(y1), w, clr, ds.aa)
		x0, y0 = x1, y1
	}
}

func (ds *drawState) drawLabel(n *Node, world [6]float64, alpha float64) {
	if n.Face == nil || n.Label == "" {
		return
	}
	op := &ds.txtOp
	op.GeoM.Reset()
	w, h := text.Measure(n.Label, n.Face, 0)
	op.GeoM.Translate(-w/2, -h/2)
	var g ebiten.GeoM
	setGeoM(&g, world)
	op.GeoM.Concat(g)
	op.ColorScale.Reset()
	a := float32(n.Color.A * alpha)
	op.ColorScale.Scale(float32(n.Color.R)*a, float32(n.Color.G)*a, float32(n.Color.B)*a, a)
	text.Draw(ds.dst, n.Label, n.Face, op)
}

// setGeoM loads an affine [a, b, c, d, tx, ty] matrix into g.
func setGeoM(g *ebiten.GeoM, m [6]float64) {
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
}
