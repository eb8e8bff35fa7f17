package fx

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// nodeIDCounter is only touched from the game goroutine.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph element effects attach to. The host supplies a root
// Node at construction; every particle layer, ring, bolt, light glow and
// sprite is a descendant of it. A single flat struct is used for all node
// types to avoid interface dispatch on the draw path.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	PivotX   float64
	PivotY   float64

	// Visibility
	Alpha   float64
	Visible bool

	// Appearance
	Color     Color
	BlendMode BlendMode

	// Sprite fields (NodeTypeSprite)
	Image *ebiten.Image

	// Shape fields (NodeTypeCircle, NodeTypeRing, NodeTypePolyline)
	Radius    float64
	Thickness float64
	Points    []Vec2

	// Text fields (NodeTypeText)
	Label string
	Face  text.Face

	// Particle fields (NodeTypeParticles)
	emitter *Emitter

	// OnDispose, when set, runs once after the node is disposed.
	OnDispose func()

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Color = ColorWhite
	n.Visible = true
}

// NewContainer creates a container node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	return n
}

// NewSprite creates a sprite node that draws img with its pivot at the
// image center. A nil img draws nothing.
func NewSprite(name string, img *ebiten.Image) *Node {
	n := &Node{Name: name, Type: NodeTypeSprite}
	nodeDefaults(n)
	n.SetImage(img)
	return n
}

// NewCircle creates a filled circle centered on the node origin.
func NewCircle(name string, radius float64, c Color) *Node {
	n := &Node{Name: name, Type: NodeTypeCircle, Radius: radius}
	nodeDefaults(n)
	n.Color = c
	return n
}

// NewRing creates a stroked circle centered on the node origin.
func NewRing(name string, radius, thickness float64, c Color) *Node {
	n := &Node{Name: name, Type: NodeTypeRing, Radius: radius, Thickness: thickness}
	nodeDefaults(n)
	n.Color = c
	return n
}

// NewPolyline creates an open stroked path through points in local space.
func NewPolyline(name string, points []Vec2, width float64, c Color) *Node {
	n := &Node{Name: name, Type: NodeTypePolyline, Points: points, Thickness: width}
	nodeDefaults(n)
	n.Color = c
	return n
}

// NewLabel creates a text node centered on the node origin.
func NewLabel(name, label string, face text.Face, c Color) *Node {
	n := &Node{Name: name, Type: NodeTypeText, Label: label, Face: face}
	nodeDefaults(n)
	n.Color = c
	return n
}

// newParticleLayer creates the node that draws an emitter's arena.
func newParticleLayer(name string, e *Emitter) *Node {
	n := &Node{Name: name, Type: NodeTypeParticles, emitter: e}
	nodeDefaults(n)
	return n
}

// SetImage replaces the sprite image and re-centers the pivot.
func (n *Node) SetImage(img *ebiten.Image) {
	n.Image = img
	if img != nil {
		b := img.Bounds()
		n.PivotX = float64(b.Dx()) / 2
		n.PivotY = float64(b.Dy()) / 2
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("fx: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("fx: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node. No-op if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.Parent != n {
		return
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.Parent = nil
	}
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Safe to call more than once.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Image = nil
	n.Points = nil
	n.Face = nil
	n.emitter = nil
	if fn := n.OnDispose; fn != nil {
		n.OnDispose = nil
		fn()
	}
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
