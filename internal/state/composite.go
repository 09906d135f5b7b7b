package state

import (
	"slices"
	"time"
)

// Composite is a node that delegates its lifecycle to an ordered list of
// children. Children can be added and removed while the composite is active
// without a full state transition.
type Composite struct {
	name     string
	children []Node
	entered  bool
}

// NewComposite creates a composite holding children in order.
func NewComposite(name string, children ...Node) *Composite {
	return &Composite{
		name:     name,
		children: slices.Clone(children),
	}
}

func (c *Composite) Name() string {
	return c.name
}

// Entered reports whether the composite is between OnEnter and OnExit.
func (c *Composite) Entered() bool {
	return c.entered
}

// Children returns a copy of the children in insertion order.
func (c *Composite) Children() []Node {
	return slices.Clone(c.children)
}

// Len returns the number of children.
func (c *Composite) Len() int {
	return len(c.children)
}

// AddChild appends n. When triggerEnter is set and the composite is active, the
// child is entered immediately so it behaves as if it had been there all along.
func (c *Composite) AddChild(n Node, triggerEnter bool) {
	if n == nil {
		return
	}
	c.children = append(slices.Clip(c.children), n)
	if triggerEnter && c.entered {
		Enter(n)
	}
}

// RemoveChild removes n, exiting it first if the composite is active. It
// returns false if n is not a child.
func (c *Composite) RemoveChild(n Node) bool {
	i := slices.Index(c.children, n)
	if i < 0 {
		return false
	}

	c.children = slices.Delete(slices.Clone(c.children), i, i+1)
	if c.entered {
		Exit(n)
	}
	return true
}

func (c *Composite) OnEnter() {
	c.entered = true
	for _, child := range c.children {
		Enter(child)
	}
}

// OnUpdate fans out to the children present when the update started.
func (c *Composite) OnUpdate(dt time.Duration) {
	children := c.children
	for _, child := range children {
		Update(child, dt)
	}
}

func (c *Composite) OnExit() {
	children := c.children
	for _, child := range children {
		Exit(child)
	}
	c.entered = false
}
