package bus

import (
	"fmt"
	"log/slog"
	"slices"
)

// Handler is a subscription owned by whoever created it. The channel only
// keeps a reference; identity is the pointer, so the owner must keep the
// same *Handler around to unsubscribe it later.
type Handler[T any] struct {
	name string
	fn   func(T)
}

// NewHandler wraps fn in a handler that can be subscribed to a Channel.
func NewHandler[T any](name string, fn func(T)) *Handler[T] {
	return &Handler[T]{name: name, fn: fn}
}

// Name returns the diagnostic name of the handler.
func (h *Handler[T]) Name() string {
	return h.name
}

// PanicHook is called when a handler panics during Publish.
type PanicHook func(channel, handler string, recovered any)

// Channel is a named multi-subscriber broadcast channel.
//
// Publish invokes the handlers that were subscribed when it started, in
// subscription order. Handlers subscribed during a publish are first invoked by
// the next publish; handlers unsubscribed during a publish are skipped if they
// have not been reached yet.
//
// A Channel is not safe for concurrent use.
type Channel[T any] struct {
	name     string
	handlers []*Handler[T]
	onPanic  PanicHook
}

// NewChannel creates an empty channel.
func NewChannel[T any](name string) *Channel[T] {
	return &Channel[T]{
		name:    name,
		onPanic: logPanic,
	}
}

// Name returns the channel name.
func (c *Channel[T]) Name() string {
	return c.name
}

// SetPanicHook replaces the hook invoked when a handler panics.
func (c *Channel[T]) SetPanicHook(hook PanicHook) {
	if hook == nil {
		hook = logPanic
	}
	c.onPanic = hook
}

// Subscribe appends h to the channel. It returns false without changing
// anything if h is nil or already subscribed.
func (c *Channel[T]) Subscribe(h *Handler[T]) bool {
	if h == nil || c.Subscribed(h) {
		return false
	}

	// Copy on write so an in-flight Publish keeps iterating its own snapshot.
	next := make([]*Handler[T], len(c.handlers), len(c.handlers)+1)
	copy(next, c.handlers)
	c.handlers = append(next, h)
	return true
}

// Unsubscribe removes h. Removing a handler that is not subscribed is a no-op.
func (c *Channel[T]) Unsubscribe(h *Handler[T]) {
	i := slices.Index(c.handlers, h)
	if i < 0 {
		return
	}

	next := make([]*Handler[T], 0, len(c.handlers)-1)
	next = append(next, c.handlers[:i]...)
	c.handlers = append(next, c.handlers[i+1:]...)
}

// Subscribed reports whether h is currently subscribed.
func (c *Channel[T]) Subscribed(h *Handler[T]) bool {
	return slices.Contains(c.handlers, h)
}

// Len returns the number of subscribed handlers.
func (c *Channel[T]) Len() int {
	return len(c.handlers)
}

// Publish delivers v to every subscribed handler.
func (c *Channel[T]) Publish(v T) {
	snapshot := c.handlers
	for _, h := range snapshot {
		if !c.Subscribed(h) {
			continue
		}
		c.invoke(h, v)
	}
}

// invoke runs a single handler behind a fault boundary so one failing
// subscriber cannot abort the rest of the publish.
func (c *Channel[T]) invoke(h *Handler[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			c.onPanic(c.name, h.name, r)
		}
	}()
	h.fn(v)
}

func logPanic(channel, handler string, recovered any) {
	slog.Error("event handler panicked",
		"channel", channel,
		"handler", handler,
		"panic", fmt.Sprint(recovered),
	)
}
