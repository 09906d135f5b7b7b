package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pixil98/go-factory/internal/display"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-factory/internal/messaging"
	"golang.org/x/time/rate"
)

const msgBuffer = 64

// Session is one connected player. Everything but msgs is owned by the
// goroutine running Play.
type Session struct {
	id   string
	name string

	in  *bufio.Reader
	out io.Writer
	mgr *Manager

	limiter *rate.Limiter
	msgs    chan []byte

	unsubPlayer func()
	unsubRoom   func()
	quit        bool
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Play(ctx context.Context) error {
	// Start goroutine to read input lines into a channel
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		defer close(inputChan)
		for {
			line, err := s.in.ReadString('\n')
			if line != "" {
				select {
				case inputChan <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					inputErrChan <- err
				}
				return
			}
		}
	}()

	if err := s.writeLine(fmt.Sprintf("Welcome, %s. Type 'help' for a list of commands.", s.name)); err != nil {
		return err
	}
	if err := s.prompt(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-s.msgs:
			text, err := renderEvent(msg)
			if err != nil {
				slog.WarnContext(ctx, "rendering room event", "session", s.id, "error", err)
				continue
			}
			if text == "" {
				continue
			}
			if err := s.writeLine("\n" + text); err != nil {
				return err
			}
			if err := s.prompt(); err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				// Connection lost
				select {
				case err := <-inputErrChan:
					return err
				default:
					return nil
				}
			}

			line = strings.TrimSpace(line)
			if line != "" {
				parts := strings.Fields(line)
				if err := s.exec(ctx, parts[0], parts[1:]...); err != nil {
					return err
				}
				if s.quit {
					return s.writeLine("Goodbye!")
				}
			}

			if err := s.prompt(); err != nil {
				return err
			}
		}
	}
}

// exec runs a command, printing user errors and returning system errors.
func (s *Session) exec(ctx context.Context, name string, args ...string) error {
	err := s.mgr.handler.Exec(ctx, s, name, args...)
	if err == nil {
		return nil
	}
	if msg, ok := userMessage(err); ok {
		return s.writeLine(msg)
	}
	return fmt.Errorf("command %s failed: %w", name, err)
}

func (s *Session) room() (*factory.Room, error) {
	room, ok := s.mgr.reg.RoomOf(s.id)
	if !ok {
		return nil, NewUserError("You are not in a room. Try 'create <room>' or 'join <room>'.")
	}
	return room, nil
}

// entered follows the room's notifications and shows it to the player.
func (s *Session) entered(ctx context.Context, room *factory.Room) error {
	if p, ok := room.Player(s.id); ok {
		s.name = p.Name
	}

	unsub, err := s.mgr.broker.Subscribe(messaging.RoomSubject(room.ID()), s.deliver)
	if err != nil {
		return fmt.Errorf("subscribing to room %s: %w", room.ID(), err)
	}
	s.unsubRoom = unsub

	slog.InfoContext(ctx, "session entered room", "session", s.id, "room", room.ID(), "name", s.name)
	return s.look()
}

func (s *Session) leave(ctx context.Context) error {
	if err := s.mgr.reg.Leave(s.id); err != nil {
		return err
	}
	if s.unsubRoom != nil {
		s.unsubRoom()
		s.unsubRoom = nil
	}
	slog.InfoContext(ctx, "session left room", "session", s.id)
	return nil
}

func (s *Session) kick(ctx context.Context, reason string) error {
	slog.WarnContext(ctx, "kicking player", "session", s.id, "reason", reason)
	if err := s.leave(ctx); err != nil {
		if _, ok := userMessage(err); !ok {
			return err
		}
	}
	return NewUserError(reason)
}

func (s *Session) allowAction() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *Session) look() error {
	room, err := s.room()
	if err != nil {
		return err
	}
	text, err := renderLook(room.Snapshot())
	if err != nil {
		return err
	}
	return s.writeLine(text)
}

func (s *Session) listRooms() error {
	rooms := s.mgr.reg.Rooms()
	if len(rooms) == 0 {
		return s.writeLine("No rooms are open. Try 'create <room>'.")
	}
	return s.writeLine("Open rooms: " + strings.Join(rooms, ", "))
}

// deliver is called on broker goroutines.
func (s *Session) deliver(data []byte) {
	select {
	case s.msgs <- data:
	default:
		slog.Warn("dropping room event for slow session", "session", s.id)
	}
}

// close releases everything the session holds.
func (s *Session) close(ctx context.Context) {
	if _, ok := s.mgr.reg.RoomOf(s.id); ok {
		if err := s.leave(ctx); err != nil {
			slog.WarnContext(ctx, "leaving room on disconnect", "session", s.id, "error", err)
		}
	}
	if s.unsubPlayer != nil {
		s.unsubPlayer()
		s.unsubPlayer = nil
	}
}

func (s *Session) prompt() error {
	p := "> "
	if room, ok := s.mgr.reg.RoomOf(s.id); ok {
		if ps, ok := room.Player(s.id); ok {
			p = fmt.Sprintf("[%s | %d score | %d res] > ", room.ID(), room.Score(), ps.Resources)
		}
	}
	_, err := io.WriteString(s.out, p)
	return err
}

func (s *Session) writeLine(msg string) error {
	_, err := io.WriteString(s.out, display.Wrap(msg)+"\n")
	return err
}
