package economy

import (
	"fmt"
	"math"

	"github.com/pixil98/go-errors"
)

// Formula computes the upgrade cost for a given upgrade count:
//
//	cost(n) = floor((BaseCost + FlatIncrease*n) * Multiplier^n)
type Formula struct {
	BaseCost     int     `json:"base_cost"`
	FlatIncrease int     `json:"flat_increase"`
	Multiplier   float64 `json:"multiplier"`
}

// DefaultFormula is the growth used by every part unless tuned otherwise.
var DefaultFormula = Formula{
	BaseCost:     10,
	FlatIncrease: 0,
	Multiplier:   1.2,
}

// Validate rejects parameters that would make cost decrease with upgrades.
func (f Formula) Validate() error {
	el := errors.NewErrorList()

	if f.BaseCost < 0 {
		el.Add(fmt.Errorf("base_cost must not be negative"))
	}
	if f.FlatIncrease < 0 {
		el.Add(fmt.Errorf("flat_increase must not be negative"))
	}
	if f.Multiplier < 1 || math.IsInf(f.Multiplier, 0) || math.IsNaN(f.Multiplier) {
		el.Add(fmt.Errorf("multiplier must be a finite number >= 1"))
	}

	return el.Err()
}

// Cost returns the cost of the upgrade following n completed upgrades.
func (f Formula) Cost(n int) int {
	base := float64(f.BaseCost + f.FlatIncrease*n)
	cost := math.Floor(base * math.Pow(f.Multiplier, float64(n)))
	if cost > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(cost)
}
