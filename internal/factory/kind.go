package factory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-factory/internal/economy"
)

// Kind identifies a factory part and its upgrade track.
type Kind int

const (
	KindAssembler Kind = iota
	KindGenerator
	KindAutomaton
	KindCritMachine

	kindCount
)

// Game value layout per kind.
const (
	// assembler, generator
	valueMinRoll = 0
	valueMaxRoll = 1
	// generator
	valueThreshold = 2

	// automaton
	valueInstances     = 0
	valueInstanceCap   = 1
	valueMinIntervalMs = 2
	valueMaxIntervalMs = 3

	// crit machine
	valueCritChance = 0
	valueCritEffect = 1
)

// DefaultAutomatonCap bounds the number of automatons per room.
const DefaultAutomatonCap = 20

// Kinds lists every part kind in roster order.
func Kinds() []Kind {
	return []Kind{KindAssembler, KindGenerator, KindAutomaton, KindCritMachine}
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindSpecs[k].key
}

// Label is the display name of the part.
func (k Kind) Label() string {
	if k < 0 || k >= kindCount {
		return k.String()
	}
	return kindSpecs[k].label
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// ParseKind accepts the wire key of a kind ("assembler", "critMachine", ...),
// case-insensitively, or its index.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(s, kindSpecs[k].key) || slices.Contains(kindSpecs[k].aliases, strings.ToLower(s)) {
			return k, nil
		}
	}
	return 0, NewGameError(ErrValidation, fmt.Sprintf("Unknown factory part: %s", s))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PartTuning is the tunable part of a component. Upgrade rules are fixed per kind.
type PartTuning struct {
	Formula    economy.Formula
	GameValues []int
	// Cap limits the number of upgrades, 0 for none.
	Cap int
}

// kindSpec is the per-kind lookup entry: defaults, upgrade rule, validation
// and what an upgrade does to the room beyond the component itself.
type kindSpec struct {
	key     string
	label   string
	aliases []string
	values  int
	tuning  PartTuning
	rule    economy.Rule
	// validate checks kind-specific invariants on game values.
	validate func(t PartTuning) error
	// onUpgrade runs with the room lock held after a successful upgrade.
	onUpgrade func(r *Room)
}

var kindSpecs = [kindCount]kindSpec{
	KindAssembler: {
		key:      "assembler",
		label:    "Score Assembler",
		aliases:  []string{"0", "score", "scoreassembler"},
		values:   2,
		tuning:   PartTuning{Formula: economy.DefaultFormula, GameValues: []int{1, 2}},
		rule:     economy.WidenRange(1, 2),
		validate: validateRollRange,
	},
	KindGenerator: {
		key:     "generator",
		label:   "Resource Generator",
		aliases: []string{"1", "resources", "resourcegenerator"},
		values:  3,
		tuning:  PartTuning{Formula: economy.DefaultFormula, GameValues: []int{1, 2, 10}},
		rule: economy.Chain(
			economy.WidenRange(1, 2),
			economy.ShrinkEvery(valueThreshold, 10, 1, 5),
		),
		validate: func(t PartTuning) error {
			el := errors.NewErrorList()
			el.Add(validateRollRange(t))
			if t.GameValues[valueThreshold] <= 0 {
				el.Add(fmt.Errorf("threshold must be positive"))
			}
			return el.Err()
		},
	},
	KindAutomaton: {
		key:     "automaton",
		label:   "Automaton",
		aliases: []string{"2", "auto"},
		values:  4,
		tuning: PartTuning{
			Formula:    economy.DefaultFormula,
			GameValues: []int{0, DefaultAutomatonCap, 1000, 2000},
			Cap:        DefaultAutomatonCap,
		},
		rule: economy.Add(valueInstances, 1),
		validate: func(t PartTuning) error {
			el := errors.NewErrorList()
			if t.Cap <= 0 {
				el.Add(fmt.Errorf("automaton cap must be positive"))
			}
			lo, hi := t.GameValues[valueMinIntervalMs], t.GameValues[valueMaxIntervalMs]
			if lo <= 0 || hi < lo {
				el.Add(fmt.Errorf("interval bounds must satisfy 0 < min <= max, got [%d, %d]", lo, hi))
			}
			return el.Err()
		},
	},
	KindCritMachine: {
		key:     "critMachine",
		label:   "Crit Machine",
		aliases: []string{"3", "crit"},
		values:  2,
		tuning:  PartTuning{Formula: economy.DefaultFormula, GameValues: []int{0, 50}},
		rule: economy.Chain(
			economy.RaiseBounded(valueCritChance, 5, 100),
			economy.Add(valueCritEffect, 10),
		),
		validate: func(t PartTuning) error {
			el := errors.NewErrorList()
			if c := t.GameValues[valueCritChance]; c < 0 || c > 100 {
				el.Add(fmt.Errorf("crit chance must be within [0, 100], got %d", c))
			}
			if t.GameValues[valueCritEffect] < 0 {
				el.Add(fmt.Errorf("crit effect must not be negative"))
			}
			return el.Err()
		},
	},
}

// Hooks that need the room are attached here to keep kindSpecs free of
// initialization cycles through Room methods.
func init() {
	kindSpecs[KindAutomaton].onUpgrade = (*Room).addAutomaton
}

func validateRollRange(t PartTuning) error {
	lo, hi := t.GameValues[valueMinRoll], t.GameValues[valueMaxRoll]
	if lo < 0 || hi < lo {
		return fmt.Errorf("roll bounds must satisfy 0 <= min <= max, got [%d, %d]", lo, hi)
	}
	return nil
}

// DefaultTuning returns the built-in tuning of k.
func DefaultTuning(k Kind) PartTuning {
	t := kindSpecs[k].tuning
	t.GameValues = slices.Clone(t.GameValues)
	return t
}

// ValidateTuning checks t against the layout and invariants of k.
func ValidateTuning(k Kind, t PartTuning) error {
	if !k.Valid() {
		return fmt.Errorf("invalid kind %d", int(k))
	}
	spec := kindSpecs[k]

	el := errors.NewErrorList()
	el.Add(t.Formula.Validate())
	if t.Cap < 0 {
		el.Add(fmt.Errorf("cap must not be negative"))
	}
	if len(t.GameValues) != spec.values {
		el.Add(fmt.Errorf("%s expects %d game values, got %d", spec.key, spec.values, len(t.GameValues)))
		return el.Err()
	}
	if spec.validate != nil {
		el.Add(spec.validate(t))
	}
	return el.Err()
}

func newComponent(k Kind, t PartTuning) (*economy.Component, error) {
	if err := ValidateTuning(k, t); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", k, err)
	}

	values := slices.Clone(t.GameValues)
	if k == KindAutomaton {
		values[valueInstanceCap] = t.Cap
	}

	return economy.NewComponent(economy.Tuning{
		Name:       kindSpecs[k].label,
		Formula:    t.Formula,
		GameValues: values,
		Cap:        t.Cap,
		Rule:       kindSpecs[k].rule,
	})
}
