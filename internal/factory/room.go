package factory

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pixil98/go-factory/internal/bus"
	"github.com/pixil98/go-factory/internal/driver"
	"github.com/pixil98/go-factory/internal/economy"
	"github.com/pixil98/go-factory/internal/state"
)

const MaxChatLength = 200

// Phase is the lifecycle stage of a room's simulation.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseActive
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseActive:
		return "active"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Room is the authoritative state of one game room. Every exported method is
// a discrete unit of work serialized by the room mutex; event handlers run
// synchronously inside it.
type Room struct {
	mu sync.Mutex

	id      string
	players []*player
	score   int

	elapsedTicks int64
	elapsed      time.Duration
	interval     time.Duration

	scheduler  driver.Scheduler
	cancelTick driver.Cancel
	rng        *rand.Rand
	now        func() time.Time

	tunings    map[Kind]PartTuning
	components [kindCount]*economy.Component
	automatons int

	events  *Events
	parts   *state.Composite
	machine *state.Machine
	stopped *state.Funcs
}

// NewRoom creates a room in the active phase with the default part roster.
// The tick loop is not running until StartTickLoop is called.
func NewRoom(id string, opts ...RoomOpt) (*Room, error) {
	r := &Room{
		id:        id,
		interval:  driver.DefaultTickLength,
		scheduler: driver.TickerScheduler{},
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:       time.Now,
		tunings:   map[Kind]PartTuning{},
		events:    newEvents(),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, k := range Kinds() {
		t, ok := r.tunings[k]
		if !ok {
			t = DefaultTuning(k)
		}
		c, err := newComponent(k, t)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", id, err)
		}
		r.components[k] = c

		kind := k
		c.Upgraded().Subscribe(bus.NewHandler(k.String()+" relay", func(s economy.Snapshot) {
			r.events.PartUpgraded.Publish(PartUpgrade{Kind: kind, Snapshot: s})
		}))
	}

	r.parts = state.NewComposite("factory",
		newScoreAssembler(r),
		newResourceGenerator(r),
		newCritMachine(r),
	)
	r.stopped = &state.Funcs{Label: "stopped"}
	r.machine = state.NewMachine(&state.Funcs{Label: "not started"})
	r.machine.SetState(r.parts)

	slog.Info("room created", "room", id)
	return r, nil
}

func (r *Room) ID() string {
	return r.id
}

// Observe runs fn with the room's channels while holding the room lock, so
// subscriptions never race a tick.
func (r *Room) Observe(fn func(*Events)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.events)
}

// Phase returns the room's lifecycle stage.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase()
}

func (r *Room) phase() Phase {
	switch r.machine.Current() {
	case r.parts:
		return PhaseActive
	case r.stopped:
		return PhaseStopped
	default:
		return PhaseNotStarted
	}
}

// StartTickLoop schedules ticks at the room's interval. Starting a running
// loop is a no-op; a stopped room cannot be restarted.
func (r *Room) StartTickLoop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() == PhaseStopped {
		return NewGameError(ErrRoomStopped, "Room is closed")
	}
	if r.cancelTick != nil {
		return nil
	}

	r.cancelTick = r.scheduler.Every(r.interval, r.Tick)
	slog.Info("game loop started", "room", r.id, "interval", r.interval)
	return nil
}

// StopTickLoop cancels the tick loop and moves the room to the stopped phase.
// No tick touches the room after it returns. Calling it again is a no-op.
func (r *Room) StopTickLoop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() == PhaseStopped {
		return
	}
	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}

	r.machine.SetState(r.stopped)
	slog.Info("game loop stopped", "room", r.id, "ticks", r.elapsedTicks)
}

// Tick advances the simulation by one frame.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() != PhaseActive {
		return
	}

	r.elapsedTicks++
	r.elapsed += r.interval
	r.machine.Update(r.interval)
}

// Click feeds a roll in [0, 1] to the click pipeline.
func (r *Room) Click(roll float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(""); err != nil {
		return err
	}
	if !validRoll(roll) {
		return r.fail("", NewGameError(ErrValidation, "Roll must be between 0 and 1"))
	}

	r.click(roll)
	return nil
}

func (r *Room) click(roll float64) {
	r.events.Click.Publish(roll)
}

// IncrementScore runs delta through the score modifiers and commits it.
func (r *Room) IncrementScore(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() != PhaseActive {
		return
	}
	r.incrementScore(delta)
}

func (r *Room) incrementScore(delta int) {
	p := &Pending{Value: float64(delta)}
	r.events.ScoreMods.Publish(p)

	applied := commitValue(p.Value)
	r.score += applied
	r.events.ScoreIncremented.Publish(ScoreIncrement{
		Score: r.score,
		Delta: applied,
		Crit:  p.Crit,
	})
}

// IncrementResourcesForAllPlayers runs delta through the resource modifiers
// and credits the result to every player.
func (r *Room) IncrementResourcesForAllPlayers(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() != PhaseActive {
		return
	}
	r.incrementResources(delta)
}

func (r *Room) incrementResources(delta int) {
	p := &Pending{Value: float64(delta)}
	r.events.ResourceMods.Publish(p)

	applied := commitValue(p.Value)
	for _, pl := range r.players {
		pl.resources += applied
	}
	r.events.ResourcesIncremented.Publish(ResourcesIncrement{
		Delta:   applied,
		Crit:    p.Crit,
		Players: r.playerSnapshots(),
	})
}

// commitValue rounds a modified value to a non-negative integer.
func commitValue(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

// DeductResources charges a player. The balance must cover amount.
func (r *Room) DeductResources(playerID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(playerID); err != nil {
		return err
	}
	p, err := r.findPlayer(playerID)
	if err != nil {
		return err
	}
	if amount < 0 {
		return r.fail(playerID, NewGameError(ErrValidation, "Amount must not be negative"))
	}
	if p.resources < amount {
		return r.fail(playerID, NewGameError(economy.ErrInsufficientFunds, "Not enough resources"))
	}

	r.deductResources(p, amount)
	return nil
}

func (r *Room) deductResources(p *player, amount int) {
	p.resources -= amount
	r.events.ResourceDeducted.Publish(ResourceDeduction{
		Player: p.snapshot(),
		Amount: amount,
	})
}

// TryUpgradePart lets a player buy the next upgrade of kind.
func (r *Room) TryUpgradePart(playerID string, kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(playerID); err != nil {
		return err
	}
	if !kind.Valid() {
		return r.fail(playerID, NewGameError(ErrValidation, fmt.Sprintf("Unknown factory part: %d", int(kind))))
	}
	p, err := r.findPlayer(playerID)
	if err != nil {
		return err
	}

	c := r.components[kind]
	err = c.TryUpgrade(roomPayer{room: r, player: p})
	switch {
	case err == nil:
	case errors.Is(err, economy.ErrCapReached):
		return r.fail(playerID, NewGameError(economy.ErrCapReached, fmt.Sprintf("%s limit reached (%d)", kind.Label(), c.Cap())))
	case errors.Is(err, economy.ErrInsufficientFunds):
		return r.fail(playerID, NewGameError(economy.ErrInsufficientFunds, "Not enough resources"))
	default:
		return r.fail(playerID, NewGameError(ErrValidation, err.Error()))
	}

	if hook := kindSpecs[kind].onUpgrade; hook != nil {
		hook(r)
	}

	slog.Info("factory part upgraded",
		"room", r.id,
		"player", p.name,
		"part", kind.String(),
		"upgrades", c.UpgradeCount(),
		"cost", c.Cost(),
		"resources", p.resources,
	)
	return nil
}

// addAutomaton registers one more automaton instance in the running roster.
func (r *Room) addAutomaton() {
	r.automatons++
	r.parts.AddChild(newAutomaton(r, r.automatons), true)
}

// AddPlayer appends a player with zero resources.
func (r *Room) AddPlayer(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(id); err != nil {
		return err
	}
	if id == "" {
		return r.fail(id, NewGameError(ErrValidation, "Player id is empty"))
	}
	if slices.ContainsFunc(r.players, func(p *player) bool { return p.id == id }) {
		return r.fail(id, NewGameError(ErrValidation, "Player is already in this room"))
	}
	name = NormalizeName(name)
	if err := r.checkName(id, name); err != nil {
		return r.fail(id, err)
	}

	p := &player{id: id, name: name}
	r.players = append(r.players, p)
	r.events.PlayerJoined.Publish(PlayerChange{
		Player:  p.snapshot(),
		Players: r.playerSnapshots(),
	})

	slog.Info("player joined room", "room", r.id, "player", id, "name", name)
	return nil
}

// RemovePlayer drops a player from the room.
func (r *Room) RemovePlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.players, func(p *player) bool { return p.id == id })
	if i < 0 {
		return r.fail(id, NewGameError(ErrNotFound, "Player not found"))
	}

	p := r.players[i]
	r.players = slices.Delete(r.players, i, i+1)
	r.events.PlayerLeft.Publish(PlayerChange{
		Player:  p.snapshot(),
		Players: r.playerSnapshots(),
	})

	slog.Info("player left room", "room", r.id, "player", id)
	return nil
}

// RenamePlayer changes a player's display name.
func (r *Room) RenamePlayer(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.findPlayer(id)
	if err != nil {
		return err
	}
	name = NormalizeName(name)
	if err := r.checkName(id, name); err != nil {
		return r.fail(id, err)
	}

	old := p.name
	p.name = name
	r.events.PlayerRenamed.Publish(PlayerRename{
		PlayerID: id,
		OldName:  old,
		NewName:  name,
	})
	return nil
}

// NameAvailable reports whether name is valid and unused by anyone but exceptID.
func (r *Room) NameAvailable(exceptID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkName(exceptID, NormalizeName(name)) == nil
}

func (r *Room) checkName(exceptID, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	for _, p := range r.players {
		if p.id != exceptID && sameName(p.name, name) {
			return NewGameError(ErrValidation, "Username is already taken in this room")
		}
	}
	return nil
}

// Say relays a chat line from a player to the room.
func (r *Room) Say(playerID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.findPlayer(playerID)
	if err != nil {
		return err
	}
	if message == "" || utf8.RuneCountInString(message) > MaxChatLength {
		return r.fail(playerID, NewGameError(ErrValidation, "Message is too long or empty"))
	}

	r.events.Chat.Publish(ChatMessage{
		PlayerID: playerID,
		Name:     p.name,
		Message:  message,
		At:       r.now(),
	})
	return nil
}

// PlayerCount returns the number of players in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Player returns the snapshot of a single player.
func (r *Room) Player(id string) (PlayerSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.id == id {
			return p.snapshot(), true
		}
	}
	return PlayerSnapshot{}, false
}

// Score returns the current room score.
func (r *Room) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// Part returns the snapshot of a single component.
func (r *Room) Part(kind Kind) (economy.Snapshot, bool) {
	if !kind.Valid() {
		return economy.Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.components[kind].Snapshot(), true
}

func (r *Room) findPlayer(id string) (*player, error) {
	for _, p := range r.players {
		if p.id == id {
			return p, nil
		}
	}
	return nil, r.fail(id, NewGameError(ErrNotFound, "Player not found"))
}

func (r *Room) checkActive(playerID string) error {
	if r.phase() != PhaseActive {
		return r.fail(playerID, NewGameError(ErrRoomStopped, "Room is closed"))
	}
	return nil
}

// fail publishes a game error notice and hands the error back to the caller.
func (r *Room) fail(playerID string, err error) error {
	msg := err.Error()
	var ge *GameError
	if errors.As(err, &ge) {
		msg = ge.Message
	}
	r.events.GameError.Publish(GameErrorNotice{
		PlayerID: playerID,
		Message:  msg,
	})
	return err
}

func (r *Room) playerSnapshots() []PlayerSnapshot {
	out := make([]PlayerSnapshot, len(r.players))
	for i, p := range r.players {
		out[i] = p.snapshot()
	}
	return out
}

// roll returns a uniform random number in [0, 1).
func (r *Room) roll() float64 {
	return r.rng.Float64()
}

func (r *Room) component(k Kind) *economy.Component {
	return r.components[k]
}
