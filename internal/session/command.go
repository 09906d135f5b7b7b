package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/pixil98/go-factory/internal/factory"
)

// CommandFunc runs one command on behalf of a session.
type CommandFunc func(ctx context.Context, s *Session, args []string) error

type Command struct {
	Usage string
	Help  string
	// Action commands count against the session's rate limit.
	Action bool
	Func   CommandFunc
}

type Handler struct {
	commands map[string]*Command
	aliases  map[string]string
}

func NewHandler() *Handler {
	h := &Handler{
		commands: map[string]*Command{},
		aliases:  map[string]string{},
	}

	// Register built-in commands
	for name, cmd := range builtinCommands(h) {
		_ = h.Register(name, cmd)
	}
	_ = h.Alias("c", "click")
	_ = h.Alias("u", "upgrade")
	_ = h.Alias("l", "look")
	_ = h.Alias("'", "say")

	return h
}

// Register adds a command by name.
func (h *Handler) Register(name string, cmd *Command) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd == nil || cmd.Func == nil {
		return fmt.Errorf("command %q has no function", name)
	}
	if _, exists := h.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	h.commands[name] = cmd
	return nil
}

// Alias makes alias run the command registered as name.
func (h *Handler) Alias(alias, name string) error {
	if _, ok := h.commands[name]; !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	h.aliases[alias] = name
	return nil
}

func (h *Handler) lookup(name string) (*Command, bool) {
	name = strings.ToLower(name)
	if target, ok := h.aliases[name]; ok {
		name = target
	}
	cmd, ok := h.commands[name]
	return cmd, ok
}

// Exec runs a command with the given arguments.
func (h *Handler) Exec(ctx context.Context, s *Session, name string, args ...string) error {
	cmd, ok := h.lookup(name)
	if !ok {
		return NewUserError(fmt.Sprintf("Unknown command: %s", name))
	}

	if cmd.Action && !s.allowAction() {
		return s.kick(ctx, "Kicked for performing actions too quickly")
	}

	return cmd.Func(ctx, s, args)
}

func (h *Handler) help() string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Commands:")
	for _, name := range names {
		cmd := h.commands[name]
		fmt.Fprintf(&b, "\n  %-20s %s", cmd.Usage, cmd.Help)
	}
	return b.String()
}

func usage(cmd string) error {
	return NewUserError("Usage: " + cmd)
}

func builtinCommands(h *Handler) map[string]*Command {
	return map[string]*Command{
		"create": {
			Usage: "create <room>",
			Help:  "open a new room and join it",
			Func: func(ctx context.Context, s *Session, args []string) error {
				if len(args) != 1 {
					return usage("create <room>")
				}
				room, err := s.mgr.reg.Create(args[0], s.id, s.name)
				if err != nil {
					return err
				}
				return s.entered(ctx, room)
			},
		},
		"join": {
			Usage: "join <room>",
			Help:  "join an existing room",
			Func: func(ctx context.Context, s *Session, args []string) error {
				if len(args) != 1 {
					return usage("join <room>")
				}
				room, err := s.mgr.reg.Join(args[0], s.id, s.name)
				if err != nil {
					return err
				}
				return s.entered(ctx, room)
			},
		},
		"leave": {
			Usage: "leave",
			Help:  "leave the current room",
			Func: func(ctx context.Context, s *Session, _ []string) error {
				if err := s.leave(ctx); err != nil {
					return err
				}
				return s.writeLine("You left the room.")
			},
		},
		"name": {
			Usage: "name <name>",
			Help:  "change your display name",
			Func: func(_ context.Context, s *Session, args []string) error {
				if len(args) == 0 {
					return usage("name <name>")
				}
				name := factory.NormalizeName(strings.Join(args, " "))
				if _, ok := s.mgr.reg.RoomOf(s.id); ok {
					if err := s.mgr.reg.Rename(s.id, name); err != nil {
						return err
					}
				} else if err := factory.ValidateName(name); err != nil {
					return err
				}
				s.name = name
				return s.writeLine(fmt.Sprintf("You are now known as %s.", name))
			},
		},
		"click": {
			Usage:  "click [roll]",
			Help:   "run the assembler once",
			Action: true,
			Func: func(_ context.Context, s *Session, args []string) error {
				room, err := s.room()
				if err != nil {
					return err
				}
				// Clients may supply their own roll; the room only checks it is in [0, 1].
				roll := rand.Float64()
				if len(args) > 0 {
					roll, err = strconv.ParseFloat(args[0], 64)
					if err != nil {
						return NewUserError(fmt.Sprintf("Invalid roll: %s", args[0]))
					}
				}
				return room.Click(roll)
			},
		},
		"upgrade": {
			Usage:  "upgrade <part>",
			Help:   "buy the next upgrade of a part",
			Action: true,
			Func: func(_ context.Context, s *Session, args []string) error {
				if len(args) != 1 {
					return usage("upgrade <assembler|generator|automaton|critMachine>")
				}
				room, err := s.room()
				if err != nil {
					return err
				}
				kind, err := factory.ParseKind(args[0])
				if err != nil {
					return err
				}
				return room.TryUpgradePart(s.id, kind)
			},
		},
		"say": {
			Usage: "say <message>",
			Help:  "talk to the room",
			Func: func(_ context.Context, s *Session, args []string) error {
				return s.mgr.reg.Chat(s.id, strings.Join(args, " "))
			},
		},
		"look": {
			Usage: "look",
			Help:  "show the room",
			Func: func(_ context.Context, s *Session, _ []string) error {
				return s.look()
			},
		},
		"rooms": {
			Usage: "rooms",
			Help:  "list open rooms",
			Func: func(_ context.Context, s *Session, _ []string) error {
				return s.listRooms()
			},
		},
		"help": {
			Usage: "help",
			Help:  "show this list",
			Func: func(_ context.Context, s *Session, _ []string) error {
				return s.writeLine(h.help())
			},
		},
		"quit": {
			Usage: "quit",
			Help:  "leave the game",
			Func: func(_ context.Context, s *Session, _ []string) error {
				s.quit = true
				return nil
			},
		},
	}
}
