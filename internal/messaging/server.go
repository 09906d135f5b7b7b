package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

var ErrNotStarted = errors.New("nats server not started")

const (
	defaultClientName = "factory"
	drainTimeout      = 2 * time.Second
)

// NatsServer is the broker between rooms and sessions: an embedded NATS
// server plus the one in-process client every relay and session shares.
type NatsServer struct {
	ns *server.Server

	mu     sync.RWMutex
	conn   *nats.Conn
	ready  chan struct{}
	closed chan struct{}

	startupTimeout time.Duration
	host           string
	port           int
	maxPayload     int32
	clientName     string
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	n := &NatsServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		clientName:     defaultClientName,
		ready:          make(chan struct{}),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}

	ns, err := server.NewServer(&server.Options{
		ServerName: n.clientName,
		Host:       n.host,
		Port:       n.port,
		MaxPayload: n.maxPayload,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	n.ns = ns

	return n, nil
}

// Start runs the broker until ctx is done. Pending room events are drained
// before the server shuts down.
func (n *NatsServer) Start(ctx context.Context) error {
	if err := n.connect(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "nats server listening", "addr", n.ns.Addr(), "client", n.clientName)

	<-ctx.Done()

	n.shutdown(ctx)
	return nil
}

func (n *NatsServer) connect() error {
	n.ns.Start()
	if !n.ns.ReadyForConnections(n.startupTimeout) {
		n.ns.Shutdown()
		return fmt.Errorf("nats server not ready after %s", n.startupTimeout)
	}

	conn, err := nats.Connect(n.ns.ClientURL(),
		nats.Name(n.clientName),
		nats.DrainTimeout(drainTimeout),
		nats.ClosedHandler(func(*nats.Conn) { close(n.closed) }),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			slog.Warn("nats async error", "subject", subject, "error", err)
		}),
	)
	if err != nil {
		n.ns.Shutdown()
		return fmt.Errorf("creating nats client connection: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	close(n.ready)
	return nil
}

func (n *NatsServer) shutdown(ctx context.Context) {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()

	if err := conn.Drain(); err != nil {
		slog.WarnContext(ctx, "draining nats connection", "error", err)
		conn.Close()
	}
	select {
	case <-n.closed:
	case <-time.After(2 * drainTimeout):
		slog.WarnContext(ctx, "nats connection did not close in time")
	}

	n.ns.Shutdown()
	n.ns.WaitForShutdown()
	slog.InfoContext(ctx, "nats server stopped")
}

// Ready is closed once Publish and Subscribe can be used.
func (n *NatsServer) Ready() <-chan struct{} {
	return n.ready
}

// Subscribe delivers the payload of every message on subject to handler on
// a NATS goroutine. The returned func removes the subscription.
func (n *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.conn == nil {
		return nil, ErrNotStarted
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	return func() {
		err := sub.Unsubscribe()
		if err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			slog.Warn("unsubscribing", "subject", subject, "error", err)
		}
	}, nil
}

func (n *NatsServer) Publish(subject string, data []byte) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.conn == nil {
		return ErrNotStarted
	}
	return n.conn.Publish(subject, data)
}
