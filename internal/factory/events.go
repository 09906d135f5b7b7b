package factory

import (
	"time"

	"github.com/pixil98/go-factory/internal/bus"
	"github.com/pixil98/go-factory/internal/economy"
)

// Pending is a value on its way through a modifier pipeline. Modifiers may
// change Value in place before it is committed.
type Pending struct {
	Value float64
	Crit  bool
}

// ScoreIncrement is published after score has been committed.
type ScoreIncrement struct {
	Score int  `json:"score"`
	Delta int  `json:"delta"`
	Crit  bool `json:"crit,omitempty"`
}

// ResourcesIncrement is published after every player has been credited.
type ResourcesIncrement struct {
	Delta   int              `json:"delta"`
	Crit    bool             `json:"crit,omitempty"`
	Players []PlayerSnapshot `json:"players"`
}

// ResourceDeduction is published after a player paid for something.
type ResourceDeduction struct {
	Player PlayerSnapshot `json:"player"`
	Amount int            `json:"amount"`
}

// PartUpgrade is published after a component levelled up.
type PartUpgrade struct {
	Kind     Kind             `json:"kind"`
	Snapshot economy.Snapshot `json:"snapshot"`
}

// AutomatonFire is published every time an automaton clicks.
type AutomatonFire struct {
	Instance int `json:"instance"`
}

// GameErrorNotice reports a rejected command. PlayerID is empty when the
// command was not issued on behalf of a player.
type GameErrorNotice struct {
	PlayerID string `json:"-"`
	Message  string `json:"message"`
}

// PlayerChange is published when a player joins or leaves.
type PlayerChange struct {
	Player  PlayerSnapshot   `json:"player"`
	Players []PlayerSnapshot `json:"players"`
}

// PlayerRename is published when a player changes display name.
type PlayerRename struct {
	PlayerID string `json:"-"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

// ChatMessage is a line of chat relayed to the room.
type ChatMessage struct {
	PlayerID string    `json:"-"`
	Name     string    `json:"name"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Events holds every channel of a room. Click, ScoreMods and ResourceMods run
// before a value is committed; the rest are notifications after the fact.
type Events struct {
	Click        *bus.Channel[float64]
	ScoreMods    *bus.Channel[*Pending]
	ResourceMods *bus.Channel[*Pending]

	ScoreIncremented     *bus.Channel[ScoreIncrement]
	ResourcesIncremented *bus.Channel[ResourcesIncrement]
	ResourceDeducted     *bus.Channel[ResourceDeduction]
	PartUpgraded         *bus.Channel[PartUpgrade]
	AutomatonFired       *bus.Channel[AutomatonFire]
	GameError            *bus.Channel[GameErrorNotice]

	PlayerJoined  *bus.Channel[PlayerChange]
	PlayerLeft    *bus.Channel[PlayerChange]
	PlayerRenamed *bus.Channel[PlayerRename]
	Chat          *bus.Channel[ChatMessage]
}

func newEvents() *Events {
	return &Events{
		Click:        bus.NewChannel[float64]("click"),
		ScoreMods:    bus.NewChannel[*Pending]("score-increment-mods"),
		ResourceMods: bus.NewChannel[*Pending]("resource-increment-mods"),

		ScoreIncremented:     bus.NewChannel[ScoreIncrement]("scoreIncremented"),
		ResourcesIncremented: bus.NewChannel[ResourcesIncrement]("resourcesIncremented"),
		ResourceDeducted:     bus.NewChannel[ResourceDeduction]("resourceDeducted"),
		PartUpgraded:         bus.NewChannel[PartUpgrade]("partUpgraded"),
		AutomatonFired:       bus.NewChannel[AutomatonFire]("automatonFired"),
		GameError:            bus.NewChannel[GameErrorNotice]("gameError"),

		PlayerJoined:  bus.NewChannel[PlayerChange]("playerJoined"),
		PlayerLeft:    bus.NewChannel[PlayerChange]("playerLeft"),
		PlayerRenamed: bus.NewChannel[PlayerRename]("playerRenamed"),
		Chat:          bus.NewChannel[ChatMessage]("chatMessage"),
	}
}
