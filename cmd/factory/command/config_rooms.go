package command

import (
	"fmt"
	"os"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-factory/internal/lobby"
	"github.com/pixil98/go-factory/internal/session"
	"github.com/pixil98/go-factory/internal/storage"
)

type RoomsConfig struct {
	TickRate       int    `json:"tick_rate"`
	MaxPlayers     int    `json:"max_players"`
	ActionInterval string `json:"action_interval"`
	ActionBurst    int    `json:"action_burst"`
	AutomatonCap   int    `json:"automaton_cap"`
	// AutomatonInterval bounds the time between automaton clicks.
	AutomatonInterval *IntervalConfig `json:"automaton_interval,omitempty"`
	// PartsPath holds part tuning assets overriding the defaults.
	PartsPath string `json:"parts_path,omitempty"`
}

func (c *RoomsConfig) validate() error {
	el := errors.NewErrorList()

	if c.TickRate < 0 {
		el.Add(fmt.Errorf("tick_rate must not be negative"))
	}
	if c.MaxPlayers < 0 {
		el.Add(fmt.Errorf("max_players must not be negative"))
	}
	if c.ActionBurst < 0 {
		el.Add(fmt.Errorf("action_burst must not be negative"))
	}
	if c.ActionInterval != "" {
		if d, err := time.ParseDuration(c.ActionInterval); err != nil {
			el.Add(fmt.Errorf("parsing action_interval: %w", err))
		} else if d < 0 {
			el.Add(fmt.Errorf("action_interval must not be negative"))
		}
	}
	if c.AutomatonCap < 0 {
		el.Add(fmt.Errorf("automaton_cap must not be negative"))
	}
	if c.AutomatonInterval != nil {
		el.Add(c.AutomatonInterval.validate())
	}
	if c.PartsPath != "" {
		if _, err := os.Stat(c.PartsPath); err != nil {
			el.Add(fmt.Errorf("parts_path: invalid path %q: %w", c.PartsPath, err))
		}
	}

	return el.Err()
}

func (c *RoomsConfig) buildRegistry(attach ...lobby.AttachFunc) (*lobby.Registry, error) {
	roomOpts := []factory.RoomOpt{}
	if c.TickRate > 0 {
		roomOpts = append(roomOpts, factory.WithTickRate(c.TickRate))
	}
	if c.PartsPath != "" {
		tunings, err := storage.LoadPartTunings(c.PartsPath)
		if err != nil {
			return nil, err
		}
		roomOpts = append(roomOpts, factory.WithPartTunings(tunings))
	}
	if c.AutomatonCap > 0 {
		roomOpts = append(roomOpts, factory.WithAutomatonCap(c.AutomatonCap))
	}
	if c.AutomatonInterval != nil {
		lo, hi, err := c.AutomatonInterval.bounds()
		if err != nil {
			return nil, err
		}
		roomOpts = append(roomOpts, factory.WithAutomatonInterval(lo, hi))
	}

	opts := []lobby.RegistryOpt{
		lobby.WithMaxPlayers(c.MaxPlayers),
		lobby.WithRoomOpts(roomOpts...),
	}
	for _, fn := range attach {
		opts = append(opts, lobby.WithAttach(fn))
	}

	return lobby.NewRegistry(opts...), nil
}

func (c *RoomsConfig) sessionOpts() ([]session.ManagerOpt, error) {
	if c.ActionInterval == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(c.ActionInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing action_interval: %w", err)
	}
	return []session.ManagerOpt{session.WithActionLimit(d, c.ActionBurst)}, nil
}

type IntervalConfig struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

func (c *IntervalConfig) validate() error {
	el := errors.NewErrorList()

	lo, err := time.ParseDuration(c.Min)
	if err != nil {
		el.Add(fmt.Errorf("parsing automaton_interval.min: %w", err))
	}
	hi, err := time.ParseDuration(c.Max)
	if err != nil {
		el.Add(fmt.Errorf("parsing automaton_interval.max: %w", err))
	}
	if el.Err() == nil && (lo < time.Millisecond || hi < lo) {
		el.Add(fmt.Errorf("automaton_interval must satisfy 1ms <= min <= max"))
	}

	return el.Err()
}

func (c *IntervalConfig) bounds() (time.Duration, time.Duration, error) {
	if err := c.validate(); err != nil {
		return 0, 0, err
	}
	lo, _ := time.ParseDuration(c.Min)
	hi, _ := time.ParseDuration(c.Max)
	return lo, hi, nil
}
