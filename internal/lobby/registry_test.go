package lobby

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-factory/internal/driver"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-testutil"
)

func newTestRegistry(opts ...RegistryOpt) (*Registry, *driver.ManualScheduler) {
	sched := driver.NewManualScheduler()
	base := []RegistryOpt{WithRoomOpts(factory.WithScheduler(sched))}
	return NewRegistry(append(base, opts...)...), sched
}

func assertCause(t *testing.T, err, cause error) {
	t.Helper()
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, expected cause %v", err, cause)
	}
}

func TestRegistry_Create(t *testing.T) {
	tests := map[string]struct {
		setup    func(*Registry)
		roomID   string
		expCause error
	}{
		"new room": {
			roomID: "alpha",
		},
		"empty id": {
			roomID:   "  ",
			expCause: factory.ErrValidation,
		},
		"id with dots": {
			roomID:   "a.b",
			expCause: factory.ErrValidation,
		},
		"existing room": {
			setup: func(reg *Registry) {
				_, _ = reg.Create("alpha", "other", "Bob")
			},
			roomID:   "alpha",
			expCause: ErrRoomExists,
		},
		"already in a room": {
			setup: func(reg *Registry) {
				_, _ = reg.Create("beta", "p1", "Alice")
			},
			roomID:   "alpha",
			expCause: ErrAlreadyInRoom,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg, sched := newTestRegistry()
			if tt.setup != nil {
				tt.setup(reg)
			}

			room, err := reg.Create(tt.roomID, "p1", "Alice")
			if tt.expCause != nil {
				assertCause(t, err, tt.expCause)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "room id", room.ID(), tt.roomID)
			testutil.AssertEqual(t, "tick loop", sched.Active(), 1)
			got, ok := reg.RoomOf("p1")
			testutil.AssertEqual(t, "member", ok, true)
			testutil.AssertEqual(t, "same room", got == room, true)
		})
	}
}

func TestRegistry_JoinCapacity(t *testing.T) {
	reg, _ := newTestRegistry(WithMaxPlayers(2))
	if _, err := reg.Create("alpha", "p1", "Alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Join("alpha", "p2", "Bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := reg.Join("alpha", "p3", "Carol")
	assertCause(t, err, ErrRoomFull)
	testutil.AssertErrorContains(t, err, "Room is full")

	_, err = reg.Join("missing", "p3", "Carol")
	assertCause(t, err, factory.ErrNotFound)

	_, err = reg.Join("alpha", "p2", "Bob")
	assertCause(t, err, ErrAlreadyInRoom)

	room, _ := reg.Room("alpha")
	testutil.AssertEqual(t, "players", room.PlayerCount(), 2)
}

func TestRegistry_NameFallback(t *testing.T) {
	reg, _ := newTestRegistry()
	room, err := reg.Create("alpha", "p1", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		id      string
		name    string
		expName func(string) bool
	}{
		{id: "p2", name: "alice", expName: func(s string) bool { return s == DefaultName }},
		{id: "p3", name: strings.Repeat("x", 21), expName: func(s string) bool { return strings.HasPrefix(s, DefaultName+"-") && len(s) == len(DefaultName)+5 }},
		{id: "p4", name: "Dora", expName: func(s string) bool { return s == "Dora" }},
	}

	for _, tt := range tests {
		if _, err := reg.Join("alpha", tt.id, tt.name); err != nil {
			t.Fatalf("join %s: %v", tt.id, err)
		}
		p, _ := room.Player(tt.id)
		if !tt.expName(p.Name) {
			t.Fatalf("player %s got name %q", tt.id, p.Name)
		}
	}
}

func TestRegistry_LeaveDestroysEmptyRoom(t *testing.T) {
	var detached int
	reg, sched := newTestRegistry(WithAttach(func(r *factory.Room) func() {
		return func() { detached++ }
	}))

	room, err := reg.Create("alpha", "p1", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Join("alpha", "p2", "Bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.Leave("p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "rooms", len(reg.Rooms()), 1)
	testutil.AssertEqual(t, "phase", room.Phase(), factory.PhaseActive)

	if err := reg.Leave("p2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "rooms", len(reg.Rooms()), 0)
	testutil.AssertEqual(t, "phase", room.Phase(), factory.PhaseStopped)
	testutil.AssertEqual(t, "tick loops", sched.Active(), 0)
	testutil.AssertEqual(t, "detached", detached, 1)

	assertCause(t, reg.Leave("p2"), ErrNotInRoom)

	// The id is free again.
	if _, err := reg.Create("alpha", "p1", "Alice"); err != nil {
		t.Fatalf("recreate: %v", err)
	}
}

func TestRegistry_LeaveKeepsMembershipOnFailure(t *testing.T) {
	reg, _ := newTestRegistry()
	room, err := reg.Create("alpha", "p1", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Join("alpha", "p2", "Bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Take p2 out behind the registry's back so the room refuses the leave.
	if err := room.RemovePlayer("p2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertCause(t, reg.Leave("p2"), factory.ErrNotFound)
	got, ok := reg.RoomOf("p2")
	testutil.AssertEqual(t, "still a member", ok, true)
	testutil.AssertEqual(t, "same room", got == room, true)
	testutil.AssertEqual(t, "rooms", len(reg.Rooms()), 1)
}

func TestRegistry_RenameAndChat(t *testing.T) {
	reg, _ := newTestRegistry()
	room, err := reg.Create("alpha", "p1", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.Rename("p1", "Alicia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := room.Player("p1")
	testutil.AssertEqual(t, "name", p.Name, "Alicia")

	testutil.AssertErrorContains(t, reg.Chat("p1", strings.Repeat("y", factory.MaxChatLength+1)), "Message is too long or empty")
	if err := reg.Chat("p1", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCause(t, reg.Chat("nobody", "hi"), ErrNotInRoom)
	assertCause(t, reg.Rename("nobody", "x"), ErrNotInRoom)
}

func TestRegistry_StartDestroysRooms(t *testing.T) {
	reg, sched := newTestRegistry()
	for _, id := range []string{"b", "a"} {
		if _, err := reg.Create(id, "owner-"+id, "Owner"); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	testutil.AssertEqual(t, "sorted", strings.Join(reg.Rooms(), ","), "a,b")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("registry did not stop")
	}

	testutil.AssertEqual(t, "rooms", len(reg.Rooms()), 0)
	testutil.AssertEqual(t, "tick loops", sched.Active(), 0)
	_, ok := reg.RoomOf("owner-a")
	testutil.AssertEqual(t, "membership cleared", ok, false)
}
