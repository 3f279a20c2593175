// internal/metrics/metrics_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Cycle()
	m.Cycle()
	m.BusReadFault("BATTERY")
	m.Relay("acked")
	m.Persist("remote_failed", 10*time.Millisecond)
	m.Update("link_down")
	m.LinkState("consumer", 2)

	if got := testutil.ToFloat64(m.cycles); got != 2 {
		t.Fatalf("cycles: got=%v want=2", got)
	}
	if got := testutil.ToFloat64(m.busReadFaults.WithLabelValues("BATTERY")); got != 1 {
		t.Fatalf("bus faults: got=%v want=1", got)
	}
	if got := testutil.ToFloat64(m.persists.WithLabelValues("remote_failed")); got != 1 {
		t.Fatalf("persist: got=%v want=1", got)
	}
	if got := testutil.ToFloat64(m.linkState.WithLabelValues("consumer")); got != 2 {
		t.Fatalf("link state: got=%v want=2", got)
	}
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	m.Cycle()
	m.BusReadFault("x")
	m.Relay("acked")
	m.Persist("remote_ok", time.Second)
	m.Update("record")
	m.LinkState("producer", 1)
}

func TestInstancesDoNotCollide(t *testing.T) {
	// Private registries: constructing twice must not panic.
	_ = New()
	_ = New()
}
