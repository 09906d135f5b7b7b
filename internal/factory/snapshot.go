package factory

import (
	"time"

	"github.com/pixil98/go-factory/internal/economy"
)

// PartsSnapshot holds the public view of every component.
type PartsSnapshot struct {
	Assembler   economy.Snapshot `json:"assembler"`
	Generator   economy.Snapshot `json:"generator"`
	Automaton   economy.Snapshot `json:"automaton"`
	CritMachine economy.Snapshot `json:"critMachine"`
}

// RoomSnapshot is everything a late joiner needs to draw the room.
type RoomSnapshot struct {
	ID           string           `json:"id"`
	Phase        string           `json:"phase"`
	Players      []PlayerSnapshot `json:"players"`
	Score        int              `json:"score"`
	ElapsedTicks int64            `json:"elapsedTicks"`
	Elapsed      time.Duration    `json:"elapsed"`
	Parts        PartsSnapshot    `json:"parts"`
}

// Snapshot returns a consistent copy of the room state.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSnapshot{
		ID:           r.id,
		Phase:        r.phase().String(),
		Players:      r.playerSnapshots(),
		Score:        r.score,
		ElapsedTicks: r.elapsedTicks,
		Elapsed:      r.elapsed,
		Parts: PartsSnapshot{
			Assembler:   r.components[KindAssembler].Snapshot(),
			Generator:   r.components[KindGenerator].Snapshot(),
			Automaton:   r.components[KindAutomaton].Snapshot(),
			CritMachine: r.components[KindCritMachine].Snapshot(),
		},
	}
}
