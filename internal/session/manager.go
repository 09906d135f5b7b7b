package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-factory/internal/lobby"
	"github.com/pixil98/go-factory/internal/messaging"
	"golang.org/x/time/rate"
)

const (
	DefaultActionInterval = 10 * time.Millisecond
	DefaultActionBurst    = 5

	maxNameTries = 3
)

// Broker delivers room notifications to sessions.
type Broker interface {
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// Manager runs a Session for every accepted connection.
type Manager struct {
	reg     *lobby.Registry
	broker  Broker
	handler *Handler

	actionInterval time.Duration
	actionBurst    int
}

func NewManager(reg *lobby.Registry, broker Broker, opts ...ManagerOpt) *Manager {
	m := &Manager{
		reg:            reg,
		broker:         broker,
		handler:        NewHandler(),
		actionInterval: DefaultActionInterval,
		actionBurst:    DefaultActionBurst,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RunSession greets a connection and plays until the player quits or the
// connection drops. A valid user name from the transport is taken as the
// player's name, otherwise the player is asked for one.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter, user string) error {
	s := &Session{
		id:   uuid.NewString(),
		in:   bufio.NewReader(conn),
		out:  conn,
		mgr:  m,
		msgs: make(chan []byte, msgBuffer),
	}
	if m.actionInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(m.actionInterval), m.actionBurst)
	}
	defer s.close(ctx)

	if err := s.writeLine("Welcome to Coop Factory!"); err != nil {
		return err
	}

	name := factory.NormalizeName(user)
	if factory.ValidateName(name) != nil {
		asked, err := prompt(s.in, s.out, "By what name do you wish to be known? ",
			withMaxTries(maxNameTries),
			withValidator(func(str string) (bool, string) {
				if err := factory.ValidateName(factory.NormalizeName(str)); err != nil {
					return false, err.Error() + ", please try another.\n"
				}
				return true, ""
			}),
		)
		if err != nil {
			return fmt.Errorf("reading name: %w", err)
		}
		name = factory.NormalizeName(asked)
	}
	s.name = name

	unsub, err := m.broker.Subscribe(messaging.PlayerSubject(s.id), s.deliver)
	if err != nil {
		return fmt.Errorf("subscribing to player subject: %w", err)
	}
	s.unsubPlayer = unsub

	slog.InfoContext(ctx, "session started", "session", s.id, "name", s.name)
	defer func() {
		slog.InfoContext(ctx, "session ended", "session", s.id, "name", s.name)
	}()

	return s.Play(ctx)
}
