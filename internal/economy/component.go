package economy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pixil98/go-factory/internal/bus"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCapReached        = errors.New("upgrade cap reached")
)

// Payer is whoever pays for an upgrade.
type Payer interface {
	Balance() int
	Deduct(amount int)
}

// Snapshot is the public view of a component sent to observers.
type Snapshot struct {
	Name         string `json:"name"`
	UpgradeCost  int    `json:"upgradeCost"`
	UpgradeCount int    `json:"upgradeCount"`
	GameValues   []int  `json:"gameValues"`
}

// Tuning holds everything needed to build a component.
type Tuning struct {
	Name       string
	Formula    Formula
	GameValues []int
	// Cap is the maximum number of upgrades, 0 means uncapped.
	Cap  int
	Rule Rule
}

// Component is a leveled economy entity. Its game values are owned by the
// component and changed only by upgrades.
type Component struct {
	name    string
	formula Formula
	rule    Rule
	cap     int

	count  int
	cost   int
	values []int

	upgraded *bus.Channel[Snapshot]
}

// NewComponent builds a component at upgrade count zero.
func NewComponent(t Tuning) (*Component, error) {
	if err := t.Formula.Validate(); err != nil {
		return nil, fmt.Errorf("component %q: %w", t.Name, err)
	}
	if t.Cap < 0 {
		return nil, fmt.Errorf("component %q: cap must not be negative", t.Name)
	}

	return &Component{
		name:     t.Name,
		formula:  t.Formula,
		rule:     t.Rule,
		cap:      t.Cap,
		cost:     t.Formula.Cost(0),
		values:   slices.Clone(t.GameValues),
		upgraded: bus.NewChannel[Snapshot](t.Name + " upgraded"),
	}, nil
}

func (c *Component) Name() string      { return c.name }
func (c *Component) UpgradeCount() int { return c.count }
func (c *Component) Cost() int         { return c.cost }
func (c *Component) Cap() int          { return c.cap }

// Value returns the game value at index i, or 0 if out of range.
func (c *Component) Value(i int) int {
	if i < 0 || i >= len(c.values) {
		return 0
	}
	return c.values[i]
}

// Values returns a copy of the game values.
func (c *Component) Values() []int {
	return slices.Clone(c.values)
}

// Upgraded is published with the new snapshot after every successful upgrade.
func (c *Component) Upgraded() *bus.Channel[Snapshot] {
	return c.upgraded
}

// CanUpgrade reports why an upgrade by payer would fail, or nil.
func (c *Component) CanUpgrade(payer Payer) error {
	if c.cap > 0 && c.count >= c.cap {
		return fmt.Errorf("%s: %w (%d/%d)", c.name, ErrCapReached, c.count, c.cap)
	}
	if payer.Balance() < c.cost {
		return fmt.Errorf("%s: %w (cost %d, balance %d)", c.name, ErrInsufficientFunds, c.cost, payer.Balance())
	}
	return nil
}

// TryUpgrade charges payer the current cost and levels the component up.
// On failure nothing changes.
func (c *Component) TryUpgrade(payer Payer) error {
	if err := c.CanUpgrade(payer); err != nil {
		return err
	}

	payer.Deduct(c.cost)
	c.count++
	c.cost = c.formula.Cost(c.count)
	if c.rule != nil {
		c.rule(c.count, c.values)
	}

	c.upgraded.Publish(c.Snapshot())
	return nil
}

// Snapshot returns the public view of the component.
func (c *Component) Snapshot() Snapshot {
	return Snapshot{
		Name:         c.name,
		UpgradeCost:  c.cost,
		UpgradeCount: c.count,
		GameValues:   c.Values(),
	}
}
