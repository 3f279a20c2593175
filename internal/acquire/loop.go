// internal/acquire/loop.go
package acquire

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/poller"
	pmodbus "github.com/tamzrod/energy-relay/internal/poller/modbus"
	"github.com/tamzrod/energy-relay/internal/record"
)

// Reader is one initialized field bus session.
type Reader interface {
	ReadAll() poller.PollResult
	NodeCount() int
	Close() error
}

// ReaderFactory makes exactly one attempt to open the field bus.
type ReaderFactory func() (Reader, error)

// Persister stores one checkpoint record. A returned error is fatal to
// the cycle; remote store failures are expected to be absorbed inside.
type Persister interface {
	Persist(ctx context.Context, r record.Record) error
}

// Relay accepts records for the display process without blocking.
type Relay interface {
	Offer(r record.Record)
}

// State of the acquisition loop.
type State uint8

const (
	Initializing State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "initializing"
}

type Config struct {
	Interval        time.Duration
	InitRetry       time.Duration
	ErrorDelay      time.Duration
	PersistInterval time.Duration
	ReinitAfter     int // consecutive all-nodes-failed cycles; 0 disables
}

// Loop is the acquisition state machine:
//
//	Initializing --factory ok--> Polling --ReinitAfter total failures--> Initializing
//
// A failing cycle never terminates the loop; only ctx does.
type Loop struct {
	cfg      Config
	open     ReaderFactory
	assemble *Assembler
	relay    Relay
	persist  Persister
	log      *logrus.Entry
	metrics  *metrics.Metrics

	// overridable in tests
	sleep func(ctx context.Context, d time.Duration) error

	state       atomic.Uint32
	persisted   bool
	lastPersist time.Time
}

func NewLoop(
	cfg Config,
	open ReaderFactory,
	assemble *Assembler,
	relay Relay,
	persist Persister,
	log *logrus.Logger,
	m *metrics.Metrics,
) *Loop {
	return &Loop{
		cfg:      cfg,
		open:     open,
		assemble: assemble,
		relay:    relay,
		persist:  persist,
		log:      log.WithField("component", "acquire"),
		metrics:  m,
		sleep:    sleepCtx,
	}
}

func (l *Loop) State() State { return State(l.state.Load()) }

var errReinit = errors.New("every node failed; re-initializing field bus")

// Run blocks until ctx is cancelled. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.state.Store(uint32(Initializing))

		r, err := l.initialize(ctx)
		if err != nil {
			return nil
		}

		l.state.Store(uint32(Polling))
		err = l.poll(ctx, r)

		if cerr := r.Close(); cerr != nil {
			l.log.Warnf("close field bus: %v", cerr)
		}
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errReinit) {
			l.metrics.Reinit()
			l.log.Warn(err.Error())
		}
	}
}

// ---- states ----

func (l *Loop) initialize(ctx context.Context) (Reader, error) {
	for {
		r, err := l.open()
		if err == nil {
			l.log.Info("connected to modbus communication")
			return r, nil
		}
		l.log.Errorf("problem with modbus communication: %v", err)

		if err := l.sleep(ctx, l.cfg.InitRetry); err != nil {
			return nil, err
		}
	}
}

func (l *Loop) poll(ctx context.Context, r Reader) error {
	streak := 0

	for {
		allFailed, err := l.cycle(ctx, r)

		delay := l.cfg.Interval
		if err != nil {
			l.log.Errorf("encountered an error: %v", err)
			delay = l.cfg.ErrorDelay
		}

		if allFailed {
			streak++
		} else {
			streak = 0
		}
		if l.cfg.ReinitAfter > 0 && streak >= l.cfg.ReinitAfter {
			return errReinit
		}

		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// cycle reads, assembles, relays and (on cadence) persists one record.
// A panic anywhere in the cycle is turned into an error.
func (l *Loop) cycle(ctx context.Context, r Reader) (allFailed bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in acquisition cycle: %v", p)
		}
	}()

	res := r.ReadAll()
	for _, f := range res.Faults {
		l.metrics.BusReadFault(f.Node)
		entry := l.log.WithField("node", f.Node)
		if code, ok := pmodbus.ExceptionCode(f.Err); ok {
			entry = entry.WithField("exception", code)
		}
		entry.Warnf("(modbus) problem: %v; continuing with stale values", f.Err)
	}
	allFailed = res.AllFailed(r.NodeCount())

	rec, err := l.assemble.Build(res)
	if err != nil {
		return allFailed, err
	}
	l.dump(res)

	l.relay.Offer(rec)

	if !l.persisted || res.At.Sub(l.lastPersist) > l.cfg.PersistInterval {
		l.persisted = true
		l.lastPersist = res.At
		if err := l.persist.Persist(ctx, rec); err != nil {
			return allFailed, err
		}
	}

	l.metrics.Cycle()
	return allFailed, nil
}

// dump logs every point value of the cycle at debug level.
func (l *Loop) dump(res poller.PollResult) {
	if !l.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	keys := make([]string, 0, len(res.Values))
	for k := range res.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		l.log.Debugf("%s: %s", k, res.Values[k])
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
