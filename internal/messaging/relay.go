package messaging

import (
	"encoding/json"
	"log/slog"

	"github.com/pixil98/go-factory/internal/bus"
	"github.com/pixil98/go-factory/internal/factory"
)

// Publisher is the part of NatsServer the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the wire form of every room notification.
type Envelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
}

func RoomSubject(roomID string) string {
	return "room." + roomID
}

func PlayerSubject(playerID string) string {
	return "player." + playerID
}

// RoomRelay forwards a room's notifications onto the broker. Room-wide events
// go to the room subject; errors and deductions that concern one player go to
// that player's subject.
type RoomRelay struct {
	pub Publisher
}

func NewRoomRelay(pub Publisher) *RoomRelay {
	return &RoomRelay{pub: pub}
}

// Attach subscribes the relay to r and returns the function that detaches it.
func (rl *RoomRelay) Attach(r *factory.Room) func() {
	roomID := r.ID()
	toRoom := func(event string, v any) { rl.send(RoomSubject(roomID), event, roomID, v) }
	toPlayer := func(playerID, event string, v any) { rl.send(PlayerSubject(playerID), event, roomID, v) }

	var detach []func()
	r.Observe(func(e *factory.Events) {
		detach = []func(){
			relay(e.ScoreIncremented, func(v factory.ScoreIncrement) { toRoom("scoreIncremented", v) }),
			relay(e.ResourcesIncremented, func(v factory.ResourcesIncrement) { toRoom("resourcesIncremented", v) }),
			relay(e.ResourceDeducted, func(v factory.ResourceDeduction) { toPlayer(v.Player.ID, "resourceDeducted", v) }),
			relay(e.PartUpgraded, func(v factory.PartUpgrade) { toRoom("partUpgraded", v) }),
			relay(e.AutomatonFired, func(v factory.AutomatonFire) { toRoom("automatonFired", v) }),
			relay(e.GameError, func(v factory.GameErrorNotice) {
				if v.PlayerID == "" {
					toRoom("gameError", v)
					return
				}
				toPlayer(v.PlayerID, "gameError", v)
			}),
			relay(e.PlayerJoined, func(v factory.PlayerChange) { toRoom("playerJoined", v) }),
			relay(e.PlayerLeft, func(v factory.PlayerChange) { toRoom("playerLeft", v) }),
			relay(e.PlayerRenamed, func(v factory.PlayerRename) { toRoom("playerRenamed", v) }),
			relay(e.Chat, func(v factory.ChatMessage) { toRoom("chatMessage", v) }),
		}
	})

	return func() {
		r.Observe(func(*factory.Events) {
			for _, fn := range detach {
				fn()
			}
		})
	}
}

func (rl *RoomRelay) send(subject, event, roomID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshalling room event", "event", event, "room", roomID, "error", err)
		return
	}
	msg, err := json.Marshal(Envelope{Event: event, Room: roomID, Data: data})
	if err != nil {
		slog.Warn("marshalling envelope", "event", event, "room", roomID, "error", err)
		return
	}
	if err := rl.pub.Publish(subject, msg); err != nil {
		slog.Warn("publishing room event", "subject", subject, "event", event, "error", err)
	}
}

func relay[T any](ch *bus.Channel[T], fn func(T)) func() {
	h := bus.NewHandler("nats relay", fn)
	ch.Subscribe(h)
	return func() { ch.Unsubscribe(h) }
}
