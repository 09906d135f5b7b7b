package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
)

type TelnetListener struct {
	addr string
	cm   *ConnectionManager
}

func NewTelnetListener(host string, port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		addr: net.JoinHostPort(host, fmt.Sprint(port)),
		cm:   cm,
	}
}

// Start serves telnet until ctx is done, then waits for every session to end.
func (l *TelnetListener) Start(ctx context.Context) error {
	sessions := newTelnetSessions(ctx, l.cm)
	svr := telnet.NewServer(l.addr, sessions)

	returned := make(chan struct{})
	defer close(returned)
	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			sessions.stop()
		case <-returned:
			sessions.cancel()
		}
	}()

	slog.InfoContext(ctx, "listening for telnet", "addr", l.addr)

	if err := svr.ListenAndServe(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("telnet address %s is already in use", l.addr)
		}
		return fmt.Errorf("serving telnet on %s: %w", l.addr, err)
	}
	return nil
}

// telnetSessions runs one session per telnet connection. Sessions share a
// context that outlives the listener's so shutdown can end them together.
type telnetSessions struct {
	cm     *ConnectionManager
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTelnetSessions(parent context.Context, cm *ConnectionManager) *telnetSessions {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &telnetSessions{cm: cm, ctx: ctx, cancel: cancel}
}

func (t *telnetSessions) HandleTelnet(conn *telnet.Connection) {
	t.wg.Add(1)
	defer t.wg.Done()

	remote := remoteAddr(conn, "telnet")
	defer func() {
		if err := conn.Close(); err != nil {
			slog.WarnContext(t.ctx, "closing telnet connection", "remote", remote, "error", err)
		}
	}()

	t.cm.AcceptConnection(t.ctx, conn, remote, "")
}

func (t *telnetSessions) stop() {
	t.cancel()
	t.wg.Wait()
}

// remoteAddr reports the peer of conn when it exposes one.
func remoteAddr(conn any, fallback string) string {
	if ra, ok := conn.(interface{ RemoteAddr() net.Addr }); ok && ra.RemoteAddr() != nil {
		return ra.RemoteAddr().String()
	}
	return fallback
}
