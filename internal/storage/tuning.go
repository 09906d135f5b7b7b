package storage

import (
	"fmt"

	"github.com/pixil98/go-factory/internal/economy"
	"github.com/pixil98/go-factory/internal/factory"
)

// PartTuningSpec overrides the default tuning of one factory part.
//
//	{"version": 1, "id": "fast-automaton", "spec": {
//	    "kind": "automaton", "base_cost": 25, "multiplier": 1.3,
//	    "game_values": [0, 10, 500, 1500], "cap": 10}}
type PartTuningSpec struct {
	// Kind is required; nil means the asset did not name one.
	Kind *factory.Kind `json:"kind"`
	economy.Formula
	GameValues []int `json:"game_values"`
	Cap        int   `json:"cap"`
}

func (s *PartTuningSpec) Tuning() factory.PartTuning {
	return factory.PartTuning{
		Formula:    s.Formula,
		GameValues: s.GameValues,
		Cap:        s.Cap,
	}
}

func (s *PartTuningSpec) Validate() error {
	if s.Kind == nil {
		return fmt.Errorf("kind is required")
	}
	return factory.ValidateTuning(*s.Kind, s.Tuning())
}

// PartTunings collects the tunings in g by kind. Two assets tuning the same
// kind are rejected.
func PartTunings(g Getter[*PartTuningSpec]) (map[factory.Kind]factory.PartTuning, error) {
	out := map[factory.Kind]factory.PartTuning{}
	owner := map[factory.Kind]string{}

	for id, spec := range g.GetAll() {
		if spec.Kind == nil {
			return nil, fmt.Errorf("asset %s: kind is required", id)
		}
		kind := *spec.Kind
		if prev, ok := owner[kind]; ok {
			return nil, fmt.Errorf("assets %s and %s both tune %s", min(prev, id), max(prev, id), kind)
		}
		owner[kind] = id
		out[kind] = spec.Tuning()
	}

	return out, nil
}

// LoadPartTunings reads every part tuning asset under path.
func LoadPartTunings(path string) (map[factory.Kind]factory.PartTuning, error) {
	store, err := NewFileStore[*PartTuningSpec](path)
	if err != nil {
		return nil, fmt.Errorf("loading part tunings: %w", err)
	}
	return PartTunings(store)
}
