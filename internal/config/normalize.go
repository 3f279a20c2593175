// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Link.Network = strings.ToLower(cfg.Link.Network)
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	for i := range cfg.Acquisition.Ports {
		p := &cfg.Acquisition.Ports[i]
		p.Mode = strings.ToLower(p.Mode)
		p.Parity = strings.ToUpper(p.Parity)
	}

	// Display timeout never exceeds the refresh interval: the update loop
	// must not block longer than one cycle.
	if cfg.Display.AcceptTimeoutMs > cfg.Display.IntervalMs {
		cfg.Display.AcceptTimeoutMs = cfg.Display.IntervalMs
	}
}
