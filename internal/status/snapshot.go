// internal/status/snapshot.go
package status

import "time"

// Snapshot is the link health seen by one endpoint.
// It carries no memory of the past beyond the current streak.
type Snapshot struct {
	State               ConnState
	LastSuccess         time.Time
	ConsecutiveFailures uint32
}

// Succeeded returns the snapshot after a completed exchange.
func (s Snapshot) Succeeded(at time.Time) Snapshot {
	s.LastSuccess = at
	s.ConsecutiveFailures = 0
	return s
}

// Failed returns the snapshot after a failed exchange.
// The counter saturates instead of wrapping.
func (s Snapshot) Failed() Snapshot {
	if s.ConsecutiveFailures < ^uint32(0) {
		s.ConsecutiveFailures++
	}
	return s
}

// Stale reports whether no exchange succeeded within window.
func (s Snapshot) Stale(now time.Time, window time.Duration) bool {
	if s.LastSuccess.IsZero() {
		return true
	}
	return now.Sub(s.LastSuccess) > window
}
