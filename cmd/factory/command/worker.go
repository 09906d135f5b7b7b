package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-factory/internal/listener"
	"github.com/pixil98/go-factory/internal/messaging"
	"github.com/pixil98/go-factory/internal/session"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	relay := messaging.NewRoomRelay(natsServer)
	registry, err := cfg.Rooms.buildRegistry(relay.Attach)
	if err != nil {
		return nil, fmt.Errorf("creating room registry: %w", err)
	}

	sessionOpts, err := cfg.Rooms.sessionOpts()
	if err != nil {
		return nil, fmt.Errorf("creating session manager: %w", err)
	}
	sessions := session.NewManager(registry, natsServer, sessionOpts...)
	cm := listener.NewConnectionManager(sessions, cfg.MaxConnections)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.buildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}

	return service.WorkerList{
		"nats":      natsServer,
		"rooms":     registry,
		"listeners": &afterReady{ready: natsServer.Ready(), next: &listeners},
	}, nil
}

// afterReady holds a worker back until ready is closed, so no session starts
// before the broker accepts subscriptions.
type afterReady struct {
	ready <-chan struct{}
	next  service.Worker
}

func (w *afterReady) Start(ctx context.Context) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return nil
	}
	return w.next.Start(ctx)
}
