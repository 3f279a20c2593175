// internal/display/scheduler.go
package display

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/link"
	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/status"
)

// Source is one receive cycle of the consumer endpoint.
type Source interface {
	Receive() link.Result
	Close() error
}

type Presenter interface {
	Present(r record.Record) error
}

type stateReporter interface {
	State() status.ConnState
}

type Config struct {
	Interval time.Duration
	Fields   int // N
}

// Scheduler drives the consumer: one Receive and one presentation per tick.
type Scheduler struct {
	cfg     Config
	src     Source
	pres    Presenter
	log     *logrus.Entry
	metrics *metrics.Metrics
}

func NewScheduler(src Source, pres Presenter, cfg Config, log *logrus.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		src:     src,
		pres:    pres,
		log:     log.WithField("component", "display"),
		metrics: m,
	}
}

// Run presents Unknown immediately, then updates on every tick until
// ctx is cancelled. The source is closed on return, including on panic.
func (s *Scheduler) Run(ctx context.Context) error {
	defer func() {
		s.log.Info("cleaning up and closing connections")
		if err := s.src.Close(); err != nil {
			s.log.Warnf("close source: %v", err)
		}
	}()

	s.present(record.Placeholder(record.Unknown, s.cfg.Fields), record.Unknown.String())

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Update()
		}
	}
}

// Update runs one receive cycle and presents its resolved record.
func (s *Scheduler) Update() {
	res := s.src.Receive()
	if sr, ok := s.src.(stateReporter); ok {
		s.metrics.LinkState("consumer", uint8(sr.State()))
	}
	s.present(res.Resolve(s.cfg.Fields), res.Label())
}

func (s *Scheduler) present(r record.Record, kind string) {
	s.metrics.Update(kind)
	if err := s.pres.Present(r); err != nil {
		s.log.Warnf("present: %v", err)
	}
}
