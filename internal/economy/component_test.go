package economy

import (
	"errors"
	"testing"

	"github.com/pixil98/go-factory/internal/bus"
	"github.com/pixil98/go-testutil"
)

type mockPayer struct {
	balance int
}

func (p *mockPayer) Balance() int      { return p.balance }
func (p *mockPayer) Deduct(amount int) { p.balance -= amount }

func TestFormula_Cost(t *testing.T) {
	tests := map[string]struct {
		formula Formula
		n       int
		exp     int
	}{
		"default at zero": {
			formula: DefaultFormula,
			n:       0,
			exp:     10,
		},
		"default after one": {
			formula: DefaultFormula,
			n:       1,
			exp:     12,
		},
		"default after five": {
			formula: DefaultFormula,
			n:       5,
			exp:     24, // 10 * 2.48832
		},
		"flat increase only": {
			formula: Formula{BaseCost: 5, FlatIncrease: 3, Multiplier: 1},
			n:       4,
			exp:     17,
		},
		"flat and multiplier": {
			formula: Formula{BaseCost: 10, FlatIncrease: 2, Multiplier: 1.5},
			n:       2,
			exp:     31, // 14 * 2.25 = 31.5
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "cost", tt.formula.Cost(tt.n), tt.exp)
		})
	}
}

func TestFormula_CostNonDecreasing(t *testing.T) {
	formulas := []Formula{
		DefaultFormula,
		{BaseCost: 1, FlatIncrease: 0, Multiplier: 1},
		{BaseCost: 0, FlatIncrease: 7, Multiplier: 1.05},
		{BaseCost: 3, FlatIncrease: 1, Multiplier: 2},
	}

	for _, f := range formulas {
		prev := f.Cost(0)
		for n := 1; n < 60; n++ {
			c := f.Cost(n)
			if c < prev {
				t.Fatalf("formula %+v: cost(%d)=%d < cost(%d)=%d", f, n, c, n-1, prev)
			}
			prev = c
		}
	}
}

func TestFormula_Validate(t *testing.T) {
	tests := map[string]struct {
		formula Formula
		expErr  string
	}{
		"valid": {
			formula: DefaultFormula,
		},
		"negative base": {
			formula: Formula{BaseCost: -1, Multiplier: 1},
			expErr:  "base_cost must not be negative",
		},
		"negative flat": {
			formula: Formula{FlatIncrease: -1, Multiplier: 1},
			expErr:  "flat_increase must not be negative",
		},
		"shrinking multiplier": {
			formula: Formula{BaseCost: 10, Multiplier: 0.5},
			expErr:  "multiplier must be a finite number >= 1",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.formula.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestComponent_TryUpgrade(t *testing.T) {
	tests := map[string]struct {
		tuning     Tuning
		upgrades   int
		balance    int
		expErr     error
		expBalance int
		expCount   int
		expValues  []int
	}{
		"success deducts cost": {
			tuning:     Tuning{Name: "assembler", Formula: DefaultFormula, GameValues: []int{1, 2}, Rule: WidenRange(1, 2)},
			balance:    15,
			expBalance: 5,
			expCount:   1,
			expValues:  []int{2, 4},
		},
		"exact balance succeeds": {
			tuning:     Tuning{Name: "assembler", Formula: DefaultFormula, GameValues: []int{1, 2}},
			balance:    10,
			expBalance: 0,
			expCount:   1,
			expValues:  []int{1, 2},
		},
		"insufficient funds": {
			tuning:     Tuning{Name: "assembler", Formula: DefaultFormula, GameValues: []int{1, 2}, Rule: WidenRange(1, 2)},
			balance:    9,
			expErr:     ErrInsufficientFunds,
			expBalance: 9,
			expCount:   0,
			expValues:  []int{1, 2},
		},
		"cap reached": {
			tuning:     Tuning{Name: "automaton", Formula: Formula{BaseCost: 1, Multiplier: 1}, GameValues: []int{0}, Cap: 2, Rule: Add(0, 1)},
			upgrades:   2,
			balance:    100,
			expErr:     ErrCapReached,
			expBalance: 100,
			expCount:   2,
			expValues:  []int{2},
		},
		"cap checked before funds": {
			tuning:     Tuning{Name: "automaton", Formula: Formula{BaseCost: 0, Multiplier: 1}, Cap: 1},
			upgrades:   1,
			balance:    0,
			expErr:     ErrCapReached,
			expBalance: 0,
			expCount:   1,
			expValues:  []int{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := NewComponent(tt.tuning)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for i := 0; i < tt.upgrades; i++ {
				if err := c.TryUpgrade(&mockPayer{balance: c.Cost()}); err != nil {
					t.Fatalf("setup upgrade %d: %v", i, err)
				}
			}

			payer := &mockPayer{balance: tt.balance}
			err = c.TryUpgrade(payer)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("error = %v, expected %v", err, tt.expErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "balance", payer.balance, tt.expBalance)
			testutil.AssertEqual(t, "count", c.UpgradeCount(), tt.expCount)
			testutil.AssertEqual(t, "values length", len(c.Values()), len(tt.expValues))
			for i, v := range tt.expValues {
				testutil.AssertEqual(t, "value", c.Value(i), v)
			}
		})
	}
}

func TestComponent_CostTracksFormula(t *testing.T) {
	c, err := NewComponent(Tuning{Name: "generator", Formula: DefaultFormula})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for n := 0; n < 8; n++ {
		testutil.AssertEqual(t, "cost", c.Cost(), DefaultFormula.Cost(n))
		payer := &mockPayer{balance: 1000}
		if err := c.TryUpgrade(payer); err != nil {
			t.Fatalf("upgrade %d: %v", n, err)
		}
		testutil.AssertEqual(t, "charged", 1000-payer.balance, DefaultFormula.Cost(n))
	}
}

func TestComponent_UpgradedEvent(t *testing.T) {
	c, err := NewComponent(Tuning{Name: "assembler", Formula: DefaultFormula, GameValues: []int{1, 2}, Rule: WidenRange(1, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []Snapshot
	c.Upgraded().Subscribe(bus.NewHandler("test", func(s Snapshot) { got = append(got, s) }))

	_ = c.TryUpgrade(&mockPayer{balance: 5})
	testutil.AssertEqual(t, "no event on failure", len(got), 0)

	_ = c.TryUpgrade(&mockPayer{balance: 50})
	testutil.AssertEqual(t, "events", len(got), 1)
	testutil.AssertEqual(t, "name", got[0].Name, "assembler")
	testutil.AssertEqual(t, "count", got[0].UpgradeCount, 1)
	testutil.AssertEqual(t, "cost", got[0].UpgradeCost, 12)
	testutil.AssertEqual(t, "min", got[0].GameValues[0], 2)
	testutil.AssertEqual(t, "max", got[0].GameValues[1], 4)
}

func TestComponent_SnapshotIsCopy(t *testing.T) {
	c, err := NewComponent(Tuning{Name: "assembler", Formula: DefaultFormula, GameValues: []int{1, 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := c.Snapshot()
	s.GameValues[0] = 99

	testutil.AssertEqual(t, "value unchanged", c.Value(0), 1)
}

func TestNewComponent_Invalid(t *testing.T) {
	_, err := NewComponent(Tuning{Name: "bad", Formula: Formula{BaseCost: 10, Multiplier: 0}})
	testutil.AssertErrorContains(t, err, `component "bad"`)

	_, err = NewComponent(Tuning{Name: "bad-cap", Formula: DefaultFormula, Cap: -1})
	testutil.AssertErrorContains(t, err, "cap must not be negative")
}

func TestRules(t *testing.T) {
	tests := map[string]struct {
		rule   Rule
		count  int
		values []int
		exp    []int
	}{
		"widen range": {
			rule:   WidenRange(1, 2),
			count:  1,
			values: []int{1, 2, 10},
			exp:    []int{2, 4, 10},
		},
		"shrink on nth": {
			rule:   ShrinkEvery(2, 10, 1, 5),
			count:  10,
			values: []int{1, 2, 10},
			exp:    []int{1, 2, 9},
		},
		"shrink skipped off nth": {
			rule:   ShrinkEvery(2, 10, 1, 5),
			count:  9,
			values: []int{1, 2, 10},
			exp:    []int{1, 2, 10},
		},
		"shrink stops at floor": {
			rule:   ShrinkEvery(2, 10, 1, 5),
			count:  20,
			values: []int{1, 2, 5},
			exp:    []int{1, 2, 5},
		},
		"raise bounded": {
			rule:   RaiseBounded(0, 5, 100),
			count:  1,
			values: []int{98, 50},
			exp:    []int{100, 50},
		},
		"out of range index ignored": {
			rule:   Chain(Add(5, 1), RaiseBounded(5, 1, 2), ShrinkEvery(5, 1, 1, 0)),
			count:  1,
			values: []int{1},
			exp:    []int{1},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tt.rule(tt.count, tt.values)
			for i := range tt.exp {
				testutil.AssertEqual(t, "value", tt.values[i], tt.exp[i])
			}
		})
	}
}
