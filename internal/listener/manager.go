package listener

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

const fullMessage = "The factory floor is full, please try again later.\n"

// SessionRunner plays one session over a connection until it ends. user is
// the login name the transport offered, empty when it has none.
type SessionRunner interface {
	RunSession(ctx context.Context, conn io.ReadWriter, user string) error
}

// ConnectionManager hands accepted connections to the session layer, turning
// away those over the limit.
type ConnectionManager struct {
	sessions SessionRunner
	limit    int64
	active   atomic.Int64
}

// NewConnectionManager creates a manager admitting at most limit concurrent
// connections, 0 for no limit.
func NewConnectionManager(sessions SessionRunner, limit int) *ConnectionManager {
	return &ConnectionManager{
		sessions: sessions,
		limit:    int64(limit),
	}
}

// Active returns the number of connections currently in a session.
func (m *ConnectionManager) Active() int64 {
	return m.active.Load()
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter, remote, user string) {
	n := m.active.Add(1)
	defer m.active.Add(-1)

	if m.limit > 0 && n > m.limit {
		slog.WarnContext(ctx, "connection refused", "remote", remote, "active", n-1, "limit", m.limit)
		_, _ = io.WriteString(conn, fullMessage)
		return
	}

	slog.InfoContext(ctx, "connection accepted", "remote", remote, "user", user, "active", n)
	if err := m.sessions.RunSession(ctx, conn, user); err != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "player session", "remote", remote, "error", err)
	}
	slog.InfoContext(ctx, "connection closed", "remote", remote)
}
