// internal/acquire/dispatcher.go
package acquire

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/link"
	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/status"
)

// Sender relays one record and returns the consumer's raw reply.
type Sender interface {
	Send(ctx context.Context, r record.Record) (reply string, ok bool)
}

type snapshotter interface {
	Snapshot() status.Snapshot
}

// Dispatcher is a single-slot "latest record" mailbox in front of the
// producer. Offer never blocks; a record still waiting when a newer one
// arrives is replaced. At most one relay is in flight.
//
// Delivery is best-effort: nothing is retried and a missing
// acknowledgement is only logged.
type Dispatcher struct {
	sender  Sender
	log     *logrus.Entry
	metrics *metrics.Metrics

	staleAfter time.Duration

	slot chan record.Record
	done chan struct{}
}

// NewDispatcher builds an idle dispatcher. staleAfter raises the log level
// of a failed relay once the consumer has not acknowledged anything for
// that long; zero disables.
func NewDispatcher(sender Sender, staleAfter time.Duration, log *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sender:     sender,
		staleAfter: staleAfter,
		log:        log.WithField("component", "relay"),
		metrics:    m,
		slot:       make(chan record.Record, 1),
		done:       make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-d.slot:
				d.relay(ctx, r)
			}
		}
	}()
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Offer hands over the latest record without blocking.
func (d *Dispatcher) Offer(r record.Record) {
	for {
		select {
		case d.slot <- r:
			return
		default:
		}
		// Slot full: drop the stale record and try again.
		select {
		case <-d.slot:
			d.metrics.Relay("replaced")
			d.log.Debug("relay still busy; replaced pending record")
		default:
		}
	}
}

func (d *Dispatcher) relay(ctx context.Context, r record.Record) {
	reply, ok := d.sender.Send(ctx, r)
	switch {
	case !ok:
		d.metrics.Relay("failed")
		d.failed()
	case link.IsAck(reply):
		d.metrics.Relay("acked")
		d.log.Debug("data successfully received by the consumer")
	default:
		d.metrics.Relay("unacked")
		d.log.Warnf("unexpected reply from consumer: %q", reply)
	}
}

func (d *Dispatcher) failed() {
	sn, ok := d.sender.(snapshotter)
	if !ok || d.staleAfter <= 0 {
		d.log.Warn("there was an issue sending the data; no acknowledgement received")
		return
	}

	snap := sn.Snapshot()
	if snap.Stale(time.Now(), d.staleAfter) {
		d.log.Errorf("consumer has not acknowledged a record for over %s (%d consecutive failures)",
			d.staleAfter, snap.ConsecutiveFailures)
		return
	}
	d.log.Warn("there was an issue sending the data; no acknowledgement received")
}
