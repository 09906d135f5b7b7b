package driver

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestIntervalForRate(t *testing.T) {
	tests := map[string]struct {
		hz  int
		exp time.Duration
	}{
		"sixty":    {hz: 60, exp: 16666666 * time.Nanosecond},
		"ten":      {hz: 10, exp: 100 * time.Millisecond},
		"zero":     {hz: 0, exp: 16666666 * time.Nanosecond},
		"negative": {hz: -5, exp: 16666666 * time.Nanosecond},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "interval", IntervalForRate(tt.hz), tt.exp)
		})
	}
}

func TestManualScheduler_Fire(t *testing.T) {
	s := NewManualScheduler()

	var a, b int
	cancelA := s.Every(time.Millisecond, func() { a++ })
	s.Every(time.Millisecond, func() { b++ })

	s.Fire(3)
	cancelA()
	cancelA()
	s.Fire(2)

	testutil.AssertEqual(t, "a", a, 3)
	testutil.AssertEqual(t, "b", b, 5)
	testutil.AssertEqual(t, "active", s.Active(), 1)
}

func TestManualScheduler_Advance(t *testing.T) {
	s := NewManualScheduler()

	var fast, slow int
	s.Every(10*time.Millisecond, func() { fast++ })
	s.Every(25*time.Millisecond, func() { slow++ })

	s.Advance(50 * time.Millisecond)

	testutil.AssertEqual(t, "fast", fast, 5)
	testutil.AssertEqual(t, "slow", slow, 2)
}

func TestTickerScheduler(t *testing.T) {
	var ticks atomic.Int32
	done := make(chan struct{})

	cancel := TickerScheduler{}.Every(time.Millisecond, func() {
		if ticks.Add(1) == 3 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ticks")
	}

	cancel()
	cancel()
}
