// internal/status/snapshot_test.go
package status

import (
	"testing"
	"time"
)

func TestSnapshot_FailureStreakResetsOnSuccess(t *testing.T) {
	var s Snapshot

	s = s.Failed().Failed()
	if s.ConsecutiveFailures != 2 {
		t.Fatalf("expected 2 failures, got %d", s.ConsecutiveFailures)
	}

	now := time.Now()
	s = s.Succeeded(now)
	if s.ConsecutiveFailures != 0 {
		t.Fatalf("failures not reset: %d", s.ConsecutiveFailures)
	}
	if !s.LastSuccess.Equal(now) {
		t.Fatalf("last success not recorded")
	}
}

func TestSnapshot_FailedSaturates(t *testing.T) {
	s := Snapshot{ConsecutiveFailures: ^uint32(0)}
	if s.Failed().ConsecutiveFailures != ^uint32(0) {
		t.Fatalf("counter wrapped")
	}
}

func TestSnapshot_Stale(t *testing.T) {
	now := time.Now()

	var s Snapshot
	if !s.Stale(now, time.Minute) {
		t.Fatalf("never-succeeded snapshot must be stale")
	}

	s = s.Succeeded(now.Add(-30 * time.Second))
	if s.Stale(now, time.Minute) {
		t.Fatalf("recent success must not be stale")
	}
	if !s.Stale(now, 10*time.Second) {
		t.Fatalf("old success must be stale")
	}
}

func TestConnState_String(t *testing.T) {
	if AwaitingPeerAck.String() != "awaiting_peer_ack" {
		t.Fatalf("unexpected name %q", AwaitingPeerAck.String())
	}
}
