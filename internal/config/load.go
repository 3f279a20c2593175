// internal/config/load.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file and applies defaults.
// Callers still run Validate and Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes and applies defaults.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills zero values. Display timing follows acquisition timing
// unless set explicitly.
func ApplyDefaults(cfg *Config) {
	l := &cfg.Link
	if l.Network == "" {
		l.Network = "unix"
	}
	if l.Address == "" {
		if l.Network == "tcp" {
			l.Address = "127.0.0.1:9000"
		} else {
			l.Address = "/tmp/ipc_socket"
		}
	}
	if l.BufferSize == 0 {
		l.BufferSize = 1024
	}
	if l.SyncWaitMs == 0 {
		l.SyncWaitMs = 5000
	}
	if l.TimeoutMs == 0 {
		l.TimeoutMs = 5000
	}

	a := &cfg.Acquisition
	if a.IntervalMs == 0 {
		a.IntervalMs = 30000
	}
	if a.InitRetryMs == 0 {
		a.InitRetryMs = 3000
	}
	if a.ErrorDelayMs == 0 {
		a.ErrorDelayMs = 3000
	}
	if a.PersistIntervalMs == 0 {
		a.PersistIntervalMs = 60000
	}
	if a.CPUTempPath == "" {
		a.CPUTempPath = "/sys/class/thermal/thermal_zone0/temp"
	}
	for i := range a.Ports {
		p := &a.Ports[i]
		if p.Mode == "" {
			p.Mode = "rtu"
		}
		if p.BaudRate == 0 {
			p.BaudRate = 9600
		}
		if p.DataBits == 0 {
			p.DataBits = 8
		}
		if p.Parity == "" {
			p.Parity = "N"
		}
		if p.StopBits == 0 {
			p.StopBits = 1
		}
		if p.TimeoutMs == 0 {
			p.TimeoutMs = 1000
		}
	}
	for i := range a.Nodes {
		for j := range a.Nodes[i].Points {
			pt := &a.Nodes[i].Points[j]
			if pt.FC == 0 {
				pt.FC = 3
			}
			if pt.Quantity == 0 {
				pt.Quantity = 1
			}
			if pt.Scale == 0 {
				pt.Scale = 1
			}
		}
	}

	s := &cfg.Store
	if s.CSVPath == "" {
		s.CSVPath = "modbus_log.csv"
	}
	if s.Table == "" {
		s.Table = "dataparameter"
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = 3000
	}
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = 3
	}
	if s.Retry.InitialDelayMs == 0 {
		s.Retry.InitialDelayMs = 200
	}
	if s.Retry.MaxDelayMs == 0 {
		s.Retry.MaxDelayMs = 1000
	}

	m := &cfg.Mirror
	if m.Key == "" {
		m.Key = "energy:latest"
	}
	if m.Channel == "" {
		m.Channel = "energy:records"
	}

	d := &cfg.Display
	if d.Title == "" {
		d.Title = "NePower Monitoring"
	}
	if d.IntervalMs == 0 {
		d.IntervalMs = a.IntervalMs
	}
	if d.AcceptTimeoutMs == 0 {
		d.AcceptTimeoutMs = d.IntervalMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// Ms converts a millisecond config value to a duration.
func Ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
