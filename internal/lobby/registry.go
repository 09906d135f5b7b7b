package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-factory/internal/factory"
)

const (
	DefaultMaxPlayers = 4
	DefaultName       = "Default"
)

var roomIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{1,32}$`)

var (
	ErrRoomExists    = errors.New("room exists")
	ErrRoomFull      = errors.New("room full")
	ErrNotInRoom     = errors.New("not in a room")
	ErrAlreadyInRoom = errors.New("already in a room")
)

// AttachFunc hooks a collaborator onto a freshly created room. The returned
// function is called when the room is destroyed.
type AttachFunc func(r *factory.Room) (detach func())

// Registry owns every live room and which room each player is in. A player is
// in at most one room; an empty room is destroyed.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*roomEntry
	members map[string]string

	maxPlayers int
	roomOpts   []factory.RoomOpt
	attach     []AttachFunc
}

type roomEntry struct {
	room   *factory.Room
	detach []func()
}

func NewRegistry(opts ...RegistryOpt) *Registry {
	reg := &Registry{
		rooms:      map[string]*roomEntry{},
		members:    map[string]string{},
		maxPlayers: DefaultMaxPlayers,
	}

	for _, opt := range opts {
		opt(reg)
	}

	return reg
}

// Start blocks until ctx is done, then destroys every room.
func (reg *Registry) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "room registry started", "max_players", reg.maxPlayers)
	<-ctx.Done()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	for id := range reg.rooms {
		reg.destroy(id)
	}
	clear(reg.members)

	slog.InfoContext(ctx, "room registry stopped")
	return nil
}

// Create opens a new room with playerID as its first member.
func (reg *Registry) Create(roomID, playerID, name string) (*factory.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, factory.NewGameError(factory.ErrValidation, "Room id is empty")
	}
	if !roomIDPattern.MatchString(roomID) {
		return nil, factory.NewGameError(factory.ErrValidation, "Room id may only contain letters, digits and hyphens")
	}
	if _, ok := reg.members[playerID]; ok {
		return nil, factory.NewGameError(ErrAlreadyInRoom, "Cannot create a Room while already in one")
	}
	if _, ok := reg.rooms[roomID]; ok {
		return nil, factory.NewGameError(ErrRoomExists, "A Room with this ID already exists")
	}

	room, err := factory.NewRoom(roomID, reg.roomOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating room %s: %w", roomID, err)
	}
	entry := &roomEntry{room: room}
	for _, fn := range reg.attach {
		if detach := fn(room); detach != nil {
			entry.detach = append(entry.detach, detach)
		}
	}
	reg.rooms[roomID] = entry

	if err := room.StartTickLoop(); err != nil {
		reg.destroy(roomID)
		return nil, err
	}
	if err := reg.enter(room, playerID, name); err != nil {
		reg.destroy(roomID)
		return nil, err
	}

	slog.Info("room created by player", "room", roomID, "player", playerID)
	return room, nil
}

// Join adds playerID to an existing room.
func (reg *Registry) Join(roomID, playerID, name string) (*factory.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.members[playerID]; ok {
		return nil, factory.NewGameError(ErrAlreadyInRoom, "Cannot join a Room while already in one")
	}
	entry, ok := reg.rooms[strings.TrimSpace(roomID)]
	if !ok {
		return nil, factory.NewGameError(factory.ErrNotFound, "Room does not exist")
	}
	if entry.room.PlayerCount() >= reg.maxPlayers {
		return nil, factory.NewGameError(ErrRoomFull, "Room is full")
	}

	if err := reg.enter(entry.room, playerID, name); err != nil {
		return nil, err
	}
	return entry.room, nil
}

// Leave removes playerID from its room and destroys the room if it is now empty.
func (reg *Registry) Leave(playerID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	roomID, ok := reg.members[playerID]
	if !ok {
		return factory.NewGameError(ErrNotInRoom, "You are not in a room")
	}

	entry := reg.rooms[roomID]
	if err := entry.room.RemovePlayer(playerID); err != nil {
		return err
	}
	delete(reg.members, playerID)
	if entry.room.PlayerCount() == 0 {
		reg.destroy(roomID)
	}
	return nil
}

// Rename changes the display name of playerID within its room.
func (reg *Registry) Rename(playerID, name string) error {
	room, err := reg.roomOf(playerID)
	if err != nil {
		return err
	}
	return room.RenamePlayer(playerID, name)
}

// Chat relays a message from playerID to its room.
func (reg *Registry) Chat(playerID, message string) error {
	room, err := reg.roomOf(playerID)
	if err != nil {
		return err
	}
	return room.Say(playerID, message)
}

// RoomOf returns the room playerID is in.
func (reg *Registry) RoomOf(playerID string) (*factory.Room, bool) {
	room, err := reg.roomOf(playerID)
	return room, err == nil
}

// Room looks a room up by id.
func (reg *Registry) Room(roomID string) (*factory.Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry, ok := reg.rooms[roomID]
	if !ok {
		return nil, false
	}
	return entry.room, true
}

// Rooms returns the ids of every live room, sorted.
func (reg *Registry) Rooms() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (reg *Registry) roomOf(playerID string) (*factory.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	roomID, ok := reg.members[playerID]
	if !ok {
		return nil, factory.NewGameError(ErrNotInRoom, "You are not in a room")
	}
	return reg.rooms[roomID].room, nil
}

// enter adds the player under a usable display name.
func (reg *Registry) enter(room *factory.Room, playerID, name string) error {
	if err := room.AddPlayer(playerID, resolveName(room, playerID, name)); err != nil {
		return err
	}
	reg.members[playerID] = room.ID()
	return nil
}

func (reg *Registry) destroy(roomID string) {
	entry, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	delete(reg.rooms, roomID)

	entry.room.StopTickLoop()
	for _, detach := range entry.detach {
		detach()
	}
	slog.Info("room destroyed", "room", roomID)
}

// resolveName returns name if the room accepts it, otherwise a default.
func resolveName(room *factory.Room, playerID, name string) string {
	if room.NameAvailable(playerID, name) {
		return name
	}
	if room.NameAvailable(playerID, DefaultName) {
		return DefaultName
	}
	for {
		candidate := DefaultName + "-" + uuid.NewString()[:4]
		if room.NameAvailable(playerID, candidate) {
			return candidate
		}
	}
}
