// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics owns a private registry so several instances can coexist in tests.
// All methods are nil-safe.
type Metrics struct {
	reg *prometheus.Registry

	cycles        prometheus.Counter
	busReadFaults *prometheus.CounterVec
	reinits       prometheus.Counter
	relays        *prometheus.CounterVec
	persists      *prometheus.CounterVec
	updates       *prometheus.CounterVec
	linkState     *prometheus.GaugeVec
	persistTime   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_acquisition_cycles_total",
			Help: "Completed acquisition cycles.",
		}),
		busReadFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_bus_read_faults_total",
			Help: "Per-node field bus read failures (stale values retained).",
		}, []string{"node"}),
		reinits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_bus_reinit_total",
			Help: "Returns to the initializing state after repeated total read failure.",
		}),
		relays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_relay_total",
			Help: "Records relayed to the display process by outcome.",
		}, []string{"outcome"}),
		persists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_persist_total",
			Help: "Persistence checkpoints by outcome.",
		}, []string{"outcome"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_display_updates_total",
			Help: "Presentation updates by resolved record kind.",
		}, []string{"kind"}),
		linkState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "energy_link_state",
			Help: "Sync link connection state (0 disconnected, 1 connected, 2 awaiting peer ack).",
		}, []string{"role"}),
		persistTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "energy_persist_duration_seconds",
			Help:    "Wall time of one persistence checkpoint.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		}),
	}

	m.reg.MustRegister(
		m.cycles,
		m.busReadFaults,
		m.reinits,
		m.relays,
		m.persists,
		m.updates,
		m.linkState,
		m.persistTime,
	)
	return m
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Cycle() {
	if m != nil {
		m.cycles.Inc()
	}
}

func (m *Metrics) BusReadFault(node string) {
	if m != nil {
		m.busReadFaults.WithLabelValues(node).Inc()
	}
}

func (m *Metrics) Reinit() {
	if m != nil {
		m.reinits.Inc()
	}
}

// Relay outcomes: acked, unacked, failed, replaced.
func (m *Metrics) Relay(outcome string) {
	if m != nil {
		m.relays.WithLabelValues(outcome).Inc()
	}
}

// Persist outcomes: remote_ok, remote_failed, remote_disabled, local_failed.
func (m *Metrics) Persist(outcome string, took time.Duration) {
	if m != nil {
		m.persists.WithLabelValues(outcome).Inc()
		m.persistTime.Observe(took.Seconds())
	}
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.updates.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) LinkState(role string, state uint8) {
	if m != nil {
		m.linkState.WithLabelValues(role).Set(float64(state))
	}
}

// Serve exposes /metrics and /health on addr until ctx is cancelled.
// An empty addr disables the endpoint.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logrus.Logger) {
	if m == nil || addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Infof("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server error: %v", err)
		}
	}()
}
