package driver

import (
	"sync"
	"time"
)

const (
	DefaultTickRate = 60
)

// DefaultTickLength is the frame interval at DefaultTickRate.
var DefaultTickLength = IntervalForRate(DefaultTickRate)

// IntervalForRate converts a tick rate in Hz to a frame interval.
func IntervalForRate(hz int) time.Duration {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	return time.Second / time.Duration(hz)
}

// Cancel stops a scheduled task. Calling it more than once is a no-op.
type Cancel func()

// Scheduler runs a task at a fixed interval until cancelled.
type Scheduler interface {
	Every(interval time.Duration, task func()) Cancel
}

// TickerScheduler runs tasks on their own goroutine driven by a time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, task func()) Cancel {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				task()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
