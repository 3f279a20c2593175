// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/retry"
)

// Options bound the remote part of a checkpoint.
// RemoteTimeout applies to the store and to the mirror separately.
type Options struct {
	LocalPath     string
	RemoteTimeout time.Duration
	Retry         retry.Policy
}

// Relay persists checkpoint records: local log first, then the remote
// store, then the mirror. Only the local log is mandatory.
type Relay struct {
	opts    Options
	local   LocalLog
	store   Store  // nil when disabled
	mirror  Mirror // nil when disabled
	log     *logrus.Entry
	metrics *metrics.Metrics
}

func New(opts Options, local LocalLog, store Store, mirror Mirror, log *logrus.Logger, m *metrics.Metrics) *Relay {
	return &Relay{
		opts:    opts,
		local:   local,
		store:   store,
		mirror:  mirror,
		log:     log.WithField("component", "persist"),
		metrics: m,
	}
}

// Persist writes r to every sink. Exactly one local row is appended per
// call regardless of what happens remotely. The remote store is retried
// within RemoteTimeout and its failure is logged, not returned.
func (w *Relay) Persist(ctx context.Context, r record.Record) error {
	start := time.Now()

	// ---- local log ----

	if err := w.local.Append(r); err != nil {
		w.metrics.Persist("local_failed", time.Since(start))
		return &LocalLogError{Path: w.opts.LocalPath, Err: err}
	}

	// ---- remote store ----

	outcome := "remote_disabled"
	if w.store != nil {
		if err := w.insert(ctx, r); err != nil {
			outcome = "remote_failed"
			w.log.Errorf("failed to save data to database: %v", err)
		} else {
			outcome = "remote_ok"
			w.log.Info("data saved to database")
		}
	}

	// ---- mirror ----

	if w.mirror != nil {
		if err := w.publish(ctx, r); err != nil {
			w.log.Warnf("mirror update failed: %v", err)
		}
	}

	w.metrics.Persist(outcome, time.Since(start))
	return nil
}

func (w *Relay) insert(ctx context.Context, r record.Record) error {
	if w.opts.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.RemoteTimeout)
		defer cancel()
	}
	return retry.Do(ctx, w.opts.Retry, func(ctx context.Context) error {
		return w.store.Insert(ctx, r)
	})
}

func (w *Relay) publish(ctx context.Context, r record.Record) error {
	if w.opts.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.RemoteTimeout)
		defer cancel()
	}
	return w.mirror.Publish(ctx, r)
}

// Close releases the remote sinks.
func (w *Relay) Close() error {
	var errs []error
	if w.store != nil {
		errs = append(errs, w.store.Close())
	}
	if w.mirror != nil {
		errs = append(errs, w.mirror.Close())
	}
	return errors.Join(errs...)
}
