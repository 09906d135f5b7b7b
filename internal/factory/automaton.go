package factory

import (
	"fmt"
	"time"
)

// automaton clicks on its own after a randomly rerolled delay.
type automaton struct {
	room      *Room
	instance  int
	elapsed   time.Duration
	threshold time.Duration
}

func newAutomaton(r *Room, instance int) *automaton {
	a := &automaton{room: r, instance: instance}
	a.reroll()
	return a
}

func (a *automaton) Name() string {
	return fmt.Sprintf("Automaton-%d", a.instance)
}

func (a *automaton) OnUpdate(dt time.Duration) {
	a.elapsed += dt
	if a.elapsed < a.threshold {
		return
	}

	a.room.click(a.room.roll())
	a.room.events.AutomatonFired.Publish(AutomatonFire{Instance: a.instance})

	a.elapsed = 0
	a.reroll()
}

// reroll picks the next delay uniformly in [min, max).
func (a *automaton) reroll() {
	c := a.room.component(KindAutomaton)
	lo := time.Duration(c.Value(valueMinIntervalMs)) * time.Millisecond
	hi := time.Duration(c.Value(valueMaxIntervalMs)) * time.Millisecond
	a.threshold = lo + time.Duration(a.room.roll()*float64(hi-lo))
}
