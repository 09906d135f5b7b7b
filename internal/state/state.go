package state

import "time"

// Node is a state in the machine. Lifecycle callbacks are optional: a node
// opts into each one by implementing Enterer, Updater or Exiter.
type Node interface {
	Name() string
}

// Enterer is implemented by nodes that react to being entered.
type Enterer interface {
	OnEnter()
}

// Updater is implemented by nodes that advance every tick.
type Updater interface {
	OnUpdate(dt time.Duration)
}

// Exiter is implemented by nodes that react to being exited.
type Exiter interface {
	OnExit()
}

// Enter calls n.OnEnter if n implements Enterer.
func Enter(n Node) {
	if e, ok := n.(Enterer); ok {
		e.OnEnter()
	}
}

// Update calls n.OnUpdate if n implements Updater.
func Update(n Node, dt time.Duration) {
	if u, ok := n.(Updater); ok {
		u.OnUpdate(dt)
	}
}

// Exit calls n.OnExit if n implements Exiter.
func Exit(n Node) {
	if e, ok := n.(Exiter); ok {
		e.OnExit()
	}
}

// Funcs is a node assembled from optional callbacks.
type Funcs struct {
	Label  string
	Enter  func()
	Update func(dt time.Duration)
	Exit   func()
}

func (f *Funcs) Name() string {
	return f.Label
}

func (f *Funcs) OnEnter() {
	if f.Enter != nil {
		f.Enter()
	}
}

func (f *Funcs) OnUpdate(dt time.Duration) {
	if f.Update != nil {
		f.Update(dt)
	}
}

func (f *Funcs) OnExit() {
	if f.Exit != nil {
		f.Exit()
	}
}

// Machine holds the current node and drives its lifecycle.
type Machine struct {
	current Node
}

// NewMachine creates a machine and enters initial, if any.
func NewMachine(initial Node) *Machine {
	m := &Machine{}
	if initial != nil {
		m.SetState(initial)
	}
	return m
}

// Current returns the active node, or nil.
func (m *Machine) Current() Node {
	return m.current
}

// SetState exits the current node, swaps in next and enters it. A nil next
// leaves the machine without a node.
func (m *Machine) SetState(next Node) {
	if m.current != nil {
		Exit(m.current)
	}

	m.current = next

	if m.current != nil {
		Enter(m.current)
	}
}

// Update advances the current node by dt.
func (m *Machine) Update(dt time.Duration) {
	if m.current != nil {
		Update(m.current, dt)
	}
}
