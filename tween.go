package fx

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to four float64 fields together and writes the
// values back every Update. A group bound to a node stops as soon as the
// node is disposed.
type TweenGroup struct {
	tweens  [4]*gween.Tween
	fields  [4]*float64
	count   int
	target  *Node
	scratch float64
	Done    bool
}

// Update advances every tween by dt seconds.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}
	all := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			all = false
		}
	}
	g.Done = all
}

func (g *TweenGroup) add(field *float64, to float64, duration float32, fn ease.TweenFunc) {
	g.tweens[g.count] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[g.count] = field
	g.count++
}

// TweenPosition moves node to (x, y).
func TweenPosition(node *Node, x, y float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.X, x, duration, fn)
	g.add(&node.Y, y, duration, fn)
	return g
}

// TweenScale scales node uniformly to s.
func TweenScale(node *Node, s float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.ScaleX, s, duration, fn)
	g.add(&node.ScaleY, s, duration, fn)
	return g
}

// TweenAlpha fades node to a.
func TweenAlpha(node *Node, a float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Alpha, a, duration, fn)
	return g
}

// TweenWait does nothing for duration seconds.
func TweenWait(duration float32) *TweenGroup {
	g := &TweenGroup{}
	g.add(&g.scratch, 1, duration, ease.Linear)
	return g
}

// TweenStep builds a group when its turn in a sequence comes, so the group
// starts from the values left by the previous step.
type TweenStep func() *TweenGroup

// TweenSequence runs steps one after another.
type TweenSequence struct {
	steps []TweenStep
	cur   *TweenGroup
	next  int
	Done  bool
}

// Sequence returns a sequence over steps.
func Sequence(steps ...TweenStep) *TweenSequence {
	return &TweenSequence{steps: steps, Done: len(steps) == 0}
}

// Update advances the running step, starting the next one when it finishes.
// Leftover time is not carried into the next step.
func (s *TweenSequence) Update(dt float32) {
	if s.Done {
		return
	}
	if s.cur == nil {
		s.cur = s.steps[s.next]()
		s.next++
	}
	s.cur.Update(dt)
	if !s.cur.Done {
		return
	}
	s.cur = nil
	if s.next >= len(s.steps) {
		s.Done = true
	}
}
