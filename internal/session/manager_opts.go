package session

import "time"

type ManagerOpt func(*Manager)

// WithActionLimit sets how often a session may click or upgrade. Going over
// the limit kicks the player from the room. An interval of 0 disables it.
func WithActionLimit(interval time.Duration, burst int) ManagerOpt {
	return func(m *Manager) {
		m.actionInterval = interval
		if burst > 0 {
			m.actionBurst = burst
		}
	}
}
