package factory

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/pixil98/go-factory/internal/driver"
)

type RoomOpt func(*Room)

// WithTickRate sets the simulation rate in Hz.
func WithTickRate(hz int) RoomOpt {
	return func(r *Room) {
		r.interval = driver.IntervalForRate(hz)
	}
}

// WithScheduler replaces the wall-clock ticker driving the tick loop.
func WithScheduler(s driver.Scheduler) RoomOpt {
	return func(r *Room) {
		r.scheduler = s
	}
}

// WithRand sets the random source used for rolls.
func WithRand(rng *rand.Rand) RoomOpt {
	return func(r *Room) {
		r.rng = rng
	}
}

// WithClock sets the time source used to stamp chat messages.
func WithClock(now func() time.Time) RoomOpt {
	return func(r *Room) {
		r.now = now
	}
}

// WithPartTuning overrides the default tuning of a part kind.
func WithPartTuning(k Kind, t PartTuning) RoomOpt {
	return func(r *Room) {
		r.tunings[k] = t
	}
}

// WithPartTunings overrides several part tunings at once.
func WithPartTunings(tunings map[Kind]PartTuning) RoomOpt {
	return func(r *Room) {
		for k, t := range tunings {
			r.tunings[k] = t
		}
	}
}

// WithAutomatonCap overrides the maximum number of automatons.
func WithAutomatonCap(limit int) RoomOpt {
	return func(r *Room) {
		t, ok := r.tunings[KindAutomaton]
		if !ok {
			t = DefaultTuning(KindAutomaton)
		}
		t.Cap = limit
		r.tunings[KindAutomaton] = t
	}
}

// WithAutomatonInterval overrides the bounds of the automaton click timer.
func WithAutomatonInterval(lo, hi time.Duration) RoomOpt {
	return func(r *Room) {
		t, ok := r.tunings[KindAutomaton]
		if !ok {
			t = DefaultTuning(KindAutomaton)
		}
		if len(t.GameValues) <= valueMaxIntervalMs {
			return
		}
		t.GameValues = slices.Clone(t.GameValues)
		t.GameValues[valueMinIntervalMs] = int(lo.Milliseconds())
		t.GameValues[valueMaxIntervalMs] = int(hi.Milliseconds())
		r.tunings[KindAutomaton] = t
	}
}
