// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Sources that are not node points.
const (
	SourceTimestamp      = "timestamp"
	SourceCPUTemperature = "cpu_temperature"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// LINK
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Link.Network) {
	case "unix", "tcp":
	default:
		return fmt.Errorf("link.network %q: must be unix or tcp", cfg.Link.Network)
	}
	if cfg.Link.Address == "" {
		return fmt.Errorf("link.address is required")
	}
	if cfg.Link.BufferSize <= 0 {
		return fmt.Errorf("link.buffer_size must be > 0")
	}
	if cfg.Link.TimeoutMs <= 0 {
		return fmt.Errorf("link.timeout_ms must be > 0")
	}
	if cfg.Link.SyncWaitMs < 0 {
		return fmt.Errorf("link.sync_wait_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// ACQUISITION: ports and nodes
	// ------------------------------------------------------------

	a := cfg.Acquisition
	if a.IntervalMs <= 0 {
		return fmt.Errorf("acquisition.interval_ms must be > 0")
	}
	if a.PersistIntervalMs <= 0 {
		return fmt.Errorf("acquisition.persist_interval_ms must be > 0")
	}
	if a.ReinitAfter < 0 {
		return fmt.Errorf("acquisition.reinit_after must be >= 0")
	}

	ports := make(map[string]struct{}, len(a.Ports))
	for _, p := range a.Ports {
		if p.ID == "" {
			return fmt.Errorf("acquisition.ports: id is required")
		}
		if _, dup := ports[p.ID]; dup {
			return fmt.Errorf("port %q: duplicate id", p.ID)
		}
		ports[p.ID] = struct{}{}

		switch strings.ToLower(p.Mode) {
		case "rtu", "tcp":
		default:
			return fmt.Errorf("port %q: mode %q must be rtu or tcp", p.ID, p.Mode)
		}
		if p.Endpoint == "" {
			return fmt.Errorf("port %q: endpoint is required", p.ID)
		}
		switch strings.ToUpper(p.Parity) {
		case "N", "E", "O":
		default:
			return fmt.Errorf("port %q: parity %q must be N, E or O", p.ID, p.Parity)
		}
		if p.TimeoutMs <= 0 {
			return fmt.Errorf("port %q: timeout_ms must be > 0", p.ID)
		}
		if p.LatencyMs < 0 {
			return fmt.Errorf("port %q: latency_ms must be >= 0", p.ID)
		}
	}

	if len(a.Nodes) == 0 {
		return fmt.Errorf("acquisition.nodes: at least one node required")
	}

	// key = NODE.point
	points := make(map[string]struct{})
	nodes := make(map[string]struct{}, len(a.Nodes))
	for _, n := range a.Nodes {
		if n.Name == "" {
			return fmt.Errorf("acquisition.nodes: name is required")
		}
		if strings.Contains(n.Name, ".") {
			return fmt.Errorf("node %q: name must not contain '.'", n.Name)
		}
		if _, dup := nodes[n.Name]; dup {
			return fmt.Errorf("node %q: duplicate name", n.Name)
		}
		nodes[n.Name] = struct{}{}

		if _, ok := ports[n.Port]; !ok {
			return fmt.Errorf("node %q: unknown port %q", n.Name, n.Port)
		}
		if len(n.Points) == 0 {
			return fmt.Errorf("node %q: at least one point required", n.Name)
		}
		for _, pt := range n.Points {
			if pt.Name == "" {
				return fmt.Errorf("node %q: point name is required", n.Name)
			}
			key := n.Name + "." + pt.Name
			if _, dup := points[key]; dup {
				return fmt.Errorf("point %q: duplicate", key)
			}
			points[key] = struct{}{}

			if pt.FC != 3 && pt.FC != 4 {
				return fmt.Errorf("point %q: fc %d must be 3 or 4", key, pt.FC)
			}
			if pt.Quantity != 1 && pt.Quantity != 2 {
				return fmt.Errorf("point %q: quantity %d must be 1 or 2", key, pt.Quantity)
			}
			if pt.Decimals != nil && (*pt.Decimals < 0 || *pt.Decimals > 6) {
				return fmt.Errorf("point %q: decimals must be within 0..6", key)
			}
		}
	}

	// ------------------------------------------------------------
	// RECORD LAYOUT
	// ------------------------------------------------------------

	if len(cfg.Record.Fields) == 0 {
		return fmt.Errorf("record.fields: at least one field required")
	}
	titles := make(map[string]struct{}, len(cfg.Record.Fields))
	for i, f := range cfg.Record.Fields {
		if !isIdentifier(f.Title) {
			return fmt.Errorf("record.fields[%d]: title %q must match [A-Za-z0-9_]+", i, f.Title)
		}
		if _, dup := titles[f.Title]; dup {
			return fmt.Errorf("record.fields[%d]: duplicate title %q", i, f.Title)
		}
		titles[f.Title] = struct{}{}

		switch f.Source {
		case SourceTimestamp, SourceCPUTemperature:
			continue
		}
		if _, ok := points[f.Source]; !ok {
			return fmt.Errorf("record.fields[%d]: source %q does not resolve to a node point", i, f.Source)
		}
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	if cfg.Store.CSVPath == "" {
		return fmt.Errorf("store.csv_path is required")
	}
	switch strings.ToLower(cfg.Store.Driver) {
	case "":
	case "mysql", "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is set")
		}
		if !isIdentifier(cfg.Store.Table) {
			return fmt.Errorf("store.table %q must match [A-Za-z0-9_]+", cfg.Store.Table)
		}
	default:
		return fmt.Errorf("store.driver %q must be mysql or postgres", cfg.Store.Driver)
	}
	if cfg.Store.TimeoutMs <= 0 {
		return fmt.Errorf("store.timeout_ms must be > 0")
	}
	if cfg.Store.Retry.MaxAttempts < 1 {
		return fmt.Errorf("store.retry.max_attempts must be >= 1")
	}
	if cfg.Store.Retry.MaxDelayMs < cfg.Store.Retry.InitialDelayMs {
		return fmt.Errorf("store.retry.max_delay_ms must be >= initial_delay_ms")
	}

	// ------------------------------------------------------------
	// DISPLAY MAPPING
	// ------------------------------------------------------------

	if cfg.Display.IntervalMs <= 0 {
		return fmt.Errorf("display.interval_ms must be > 0")
	}
	if cfg.Display.AcceptTimeoutMs <= 0 {
		return fmt.Errorf("display.accept_timeout_ms must be > 0")
	}
	n := len(cfg.Record.Fields)
	for _, c := range cfg.Display.Components {
		if c.Name == "" {
			return fmt.Errorf("display.components: name is required")
		}
		for _, p := range c.Parameters {
			if p.Field < 0 || p.Field >= n {
				return fmt.Errorf(
					"display component %q: parameter %q field %d out of range 0..%d",
					c.Name, p.Label, p.Field, n-1,
				)
			}
		}
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
