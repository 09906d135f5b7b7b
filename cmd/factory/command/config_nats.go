package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-factory/internal/messaging"
)

type NatsConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	StartTimeout string `json:"start_timeout"`
	// MaxPayload caps a single room event in bytes, 0 for the server default.
	MaxPayload int32  `json:"max_payload,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

func (n *NatsConfig) validate() error {
	el := errors.NewErrorList()

	if _, err := n.startTimeout(); err != nil {
		el.Add(err)
	}
	if n.Port < -1 || n.Port > 65535 {
		el.Add(fmt.Errorf("port must be -1 (random), 0 (default) or a valid port"))
	}
	if n.MaxPayload < 0 {
		el.Add(fmt.Errorf("max_payload must not be negative"))
	}

	return el.Err()
}

func (n *NatsConfig) startTimeout() (time.Duration, error) {
	if n.StartTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(n.StartTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing start_timeout: %w", err)
	}
	return d, nil
}

func (n *NatsConfig) buildNatsServer() (*messaging.NatsServer, error) {
	var opts []messaging.NatsServerOpt

	d, err := n.startTimeout()
	if err != nil {
		return nil, err
	}
	if d > 0 {
		opts = append(opts, messaging.WithStartTimeout(d))
	}
	if n.Host != "" {
		opts = append(opts, messaging.WithHost(n.Host))
	}
	if n.Port != 0 {
		opts = append(opts, messaging.WithPort(n.Port))
	}
	if n.MaxPayload > 0 {
		opts = append(opts, messaging.WithMaxPayload(n.MaxPayload))
	}
	if n.ClientName != "" {
		opts = append(opts, messaging.WithClientName(n.ClientName))
	}

	return messaging.NewNatsServer(opts...)
}
