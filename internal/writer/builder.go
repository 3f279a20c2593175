// internal/writer/builder.go
package writer

import (
	"time"

	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/retry"
	"github.com/tamzrod/energy-relay/internal/writer/csvlog"
	"github.com/tamzrod/energy-relay/internal/writer/mirror"
	"github.com/tamzrod/energy-relay/internal/writer/sqlstore"
)

// Build wires the sinks named by config.
// Assumes config has already passed Validate and Normalize.
func Build(c *cfg.Config, log *logrus.Logger, m *metrics.Metrics) (*Relay, error) {
	titles := c.Titles()

	local := csvlog.New(c.Store.CSVPath, titles)

	var store Store
	if c.Store.Driver != "" {
		s, err := sqlstore.Open(c.Store.Driver, c.Store.DSN, c.Store.Table, titles)
		if err != nil {
			return nil, err
		}
		store = s
	}

	var mir Mirror
	if c.Mirror.Addr != "" {
		mir = mirror.Dial(c.Mirror, titles)
	}

	opts := Options{
		LocalPath:     local.Path(),
		RemoteTimeout: cfg.Ms(c.Store.TimeoutMs),
		Retry:         RetryPolicy(c.Store.Retry),
	}

	return New(opts, local, store, mir, log, m), nil
}

// RetryPolicy maps the store retry config onto a backoff policy.
func RetryPolicy(r cfg.RetryConfig) retry.Policy {
	p := retry.Default()
	p.MaxAttempts = r.MaxAttempts
	p.InitialDelay = time.Duration(r.InitialDelayMs) * time.Millisecond
	p.MaxDelay = time.Duration(r.MaxDelayMs) * time.Millisecond
	return p
}
