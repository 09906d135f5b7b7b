package session

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-factory/internal/economy"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-factory/internal/messaging"
	"github.com/pixil98/go-testutil"
)

func envelope(t *testing.T, event string, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := json.Marshal(messaging.Envelope{Event: event, Room: "alpha", Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return msg
}

func TestRenderEvent(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	tests := map[string]struct {
		event string
		data  any
		exp   string
	}{
		"chat": {
			event: "chatMessage",
			data:  factory.ChatMessage{Name: "Alice", Message: "hello", At: at},
			exp:   "[07:08:09] Alice: hello",
		},
		"joined": {
			event: "playerJoined",
			data:  factory.PlayerChange{Player: factory.PlayerSnapshot{Name: "Bob"}, Players: make([]factory.PlayerSnapshot, 2)},
			exp:   "Bob joined the room (2 players).",
		},
		"renamed": {
			event: "playerRenamed",
			data:  factory.PlayerRename{OldName: "Bob", NewName: "Rob"},
			exp:   "Bob is now known as Rob.",
		},
		"upgrade": {
			event: "partUpgraded",
			data:  factory.PartUpgrade{Kind: factory.KindCritMachine, Snapshot: economy.Snapshot{UpgradeCount: 2, UpgradeCost: 14}},
			exp:   "Crit Machine upgraded to level 2, next upgrade costs 14.",
		},
		"crit score": {
			event: "scoreIncremented",
			data:  factory.ScoreIncrement{Score: 10, Delta: 3, Crit: true},
			exp:   "Critical hit! +3 score (10).",
		},
		"plain score is quiet": {
			event: "scoreIncremented",
			data:  factory.ScoreIncrement{Score: 10, Delta: 2},
			exp:   "",
		},
		"automaton is quiet": {
			event: "automatonFired",
			data:  factory.AutomatonFire{Instance: 1},
			exp:   "",
		},
		"deduction": {
			event: "resourceDeducted",
			data:  factory.ResourceDeduction{Player: factory.PlayerSnapshot{Resources: 5}, Amount: 10},
			exp:   "You spent 10 resources, 5 left.",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := renderEvent(envelope(t, tt.event, tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "text", got, tt.exp)
		})
	}
}

func TestRenderEvent_BadMessage(t *testing.T) {
	_, err := renderEvent([]byte("not json"))
	testutil.AssertErrorContains(t, err, "decoding envelope")
}

func TestRenderLook(t *testing.T) {
	room, err := factory.NewRoom("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := room.AddPlayer("p1", "Alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := renderLook(room.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Room alpha (active), running for 0s",
		"Alice",
		"1-2 score per click",
		"1-2 resources every 10 score",
		"0/20 running, clicks every 1000-2000ms",
		"0% chance of +50%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("look does not contain %q:\n%s", want, out)
		}
	}
}

func TestExpandTemplate(t *testing.T) {
	out, err := ExpandTemplate(`{{ .Name | upper }} has {{ .Resources }}`, factory.PlayerSnapshot{Name: "alice", Resources: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "text", out, "ALICE has 3")

	_, err = ExpandTemplate(`{{ .Name `, nil)
	testutil.AssertErrorContains(t, err, "parsing template")
}
