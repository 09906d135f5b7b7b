package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

type Config struct {
	Listeners []ListenerConfig `json:"listeners"`
	// MaxConnections caps concurrent connections across listeners, 0 for none.
	MaxConnections int         `json:"max_connections,omitempty"`
	Nats           NatsConfig  `json:"nats"`
	Rooms          RoomsConfig `json:"rooms"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	if c.MaxConnections < 0 {
		el.Add(fmt.Errorf("max_connections must not be negative"))
	}
	el.Add(c.Nats.validate())
	el.Add(c.Rooms.validate())

	return el.Err()
}
