package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestNatsServer_NotStarted(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Publish("room.alpha", []byte("x")); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("publish error = %v, expected %v", err, ErrNotStarted)
	}
	_, err = s.Subscribe("room.alpha", func([]byte) {})
	testutil.AssertErrorContains(t, err, "nats server not started")
}

func TestNatsServer_RoundTrip(t *testing.T) {
	s, err := NewNatsServer(
		WithPort(-1),
		WithStartTimeout(5*time.Second),
		WithMaxPayload(64*1024),
		WithClientName("factory-test"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server not ready")
	}

	got := make(chan string, 1)
	unsub, err := s.Subscribe(PlayerSubject("p1"), func(data []byte) { got <- string(data) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsub()

	if err := s.Publish(PlayerSubject("p1"), []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case msg := <-got:
		testutil.AssertEqual(t, "message", msg, "hello")
	case <-time.After(5 * time.Second):
		t.Fatalf("message not delivered")
	}
}

func TestNatsServer_StopsOnCancel(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatalf("server not ready")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not stop")
	}

	if err := s.Publish("room.alpha", []byte("x")); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("publish after stop = %v, expected %v", err, ErrNotStarted)
	}
}
