package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

type SshListener struct {
	addr   string
	cm     *ConnectionManager
	config *ssh.ServerConfig
}

// NewSshListener accepts any client without authentication. The login name
// is offered to the session as the player's name.
func NewSshListener(host string, port uint16, cm *ConnectionManager, hostKey ssh.Signer, banner string) *SshListener {
	config := &ssh.ServerConfig{NoClientAuth: true}
	if banner != "" {
		config.BannerCallback = func(ssh.ConnMetadata) string { return banner + "\n" }
	}
	config.AddHostKey(hostKey)

	return &SshListener{
		addr:   net.JoinHostPort(host, fmt.Sprint(port)),
		cm:     cm,
		config: config,
	}
}

func (l *SshListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}
	slog.InfoContext(ctx, "listening for ssh", "addr", l.addr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	defer func() {
		cancelConns()
		wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.serve(connCtx, conn)
		}()
	}
}

// serve runs the handshake and one session per shell channel, in turn.
func (l *SshListener) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", remote, "error", err)
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	// Unblocks the channel loop on shutdown.
	go func() {
		<-ctx.Done()
		_ = sshConn.Close()
	}()

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.WarnContext(ctx, "accepting ssh channel", "remote", remote, "error", err)
			continue
		}

		select {
		case <-awaitShell(requests):
			l.cm.AcceptConnection(ctx, newCRLFReadWriter(ch), remote, sshConn.User())
		case <-ctx.Done():
		}
		_ = ch.Close()
	}
}

// awaitShell answers channel requests and reports when the client asked for
// a shell; clients hold back input until that reply arrives. Pty requests
// are refused so the client keeps local echo and line editing.
func awaitShell(requests <-chan *ssh.Request) <-chan struct{} {
	shell := make(chan struct{})
	go func() {
		opened := false
		for req := range requests {
			ok := req.Type == "shell" && !opened
			_ = req.Reply(ok, nil)
			if ok {
				opened = true
				close(shell)
			}
		}
	}()
	return shell
}
