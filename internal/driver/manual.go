package driver

import (
	"sync"
	"time"
)

// ManualScheduler only runs tasks when told to. It stands in for the wall
// clock wherever ticks must be deterministic.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	interval  time.Duration
	task      func()
	cancelled bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Every(interval time.Duration, task func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTask{interval: interval, task: task}
	s.tasks = append(s.tasks, t)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// Fire runs every live task n times, in scheduling order.
func (s *ManualScheduler) Fire(n int) {
	for i := 0; i < n; i++ {
		for _, t := range s.live() {
			t.task()
		}
	}
}

// Advance fires each live task once per whole interval contained in d.
func (s *ManualScheduler) Advance(d time.Duration) {
	for _, t := range s.live() {
		if t.interval <= 0 {
			continue
		}
		for elapsed := t.interval; elapsed <= d; elapsed += t.interval {
			t.task()
		}
	}
}

// Active returns the number of tasks that have not been cancelled.
func (s *ManualScheduler) Active() int {
	return len(s.live())
}

func (s *ManualScheduler) live() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var live []*manualTask
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	return live
}
