// cmd/acquire/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tamzrod/energy-relay/internal/acquire"
	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/link"
	"github.com/tamzrod/energy-relay/internal/logging"
	"github.com/tamzrod/energy-relay/internal/metrics"
	"github.com/tamzrod/energy-relay/internal/poller"
	"github.com/tamzrod/energy-relay/internal/writer"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "configs/monitor.yaml", "path to config file")
	pflag.Parse()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Setup(config.LogConfig{}).Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logging.Setup(cfg.Log).Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	log := logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	m.Serve(ctx, cfg.Metrics.AcquireAddr, log)

	// --------------------
	// Persistence relay
	// --------------------

	persist, err := writer.Build(cfg, log, m)
	if err != nil {
		log.Fatalf("persistence setup failed: %v", err)
	}
	defer func() {
		if err := persist.Close(); err != nil {
			log.Warnf("close persistence: %v", err)
		}
	}()

	// --------------------
	// Sync link producer
	// --------------------

	producer, err := link.NewProducer(link.ProducerConfig{
		Network:    cfg.Link.Network,
		Address:    cfg.Link.Address,
		BufferSize: cfg.Link.BufferSize,
		Timeout:    config.Ms(cfg.Link.TimeoutMs),
		SyncWait:   config.Ms(cfg.Link.SyncWaitMs),
		Handshake:  cfg.Link.Handshake,
	}, log)
	if err != nil {
		log.Fatalf("link setup failed: %v", err)
	}
	if cfg.Link.Handshake {
		if producer.Sync(ctx) {
			log.Info("consumer reachable")
		} else {
			log.Warn("consumer not reachable yet; records will be relayed best-effort")
		}
	}

	relay := acquire.NewDispatcher(producer, 3*config.Ms(cfg.Acquisition.IntervalMs), log, m)
	relay.Start(ctx)

	// --------------------
	// Acquisition loop
	// --------------------

	a := cfg.Acquisition
	open := func() (acquire.Reader, error) {
		p, err := poller.Build(a, poller.DialModbus)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	cpuTemp := func() (string, error) { return poller.CPUTemperature(a.CPUTempPath) }

	loop := acquire.NewLoop(acquire.Config{
		Interval:        config.Ms(a.IntervalMs),
		InitRetry:       config.Ms(a.InitRetryMs),
		ErrorDelay:      config.Ms(a.ErrorDelayMs),
		PersistInterval: config.Ms(a.PersistIntervalMs),
		ReinitAfter:     a.ReinitAfter,
	}, open, acquire.NewAssembler(cfg.Record.Fields, cpuTemp), relay, persist, log, m)

	log.Infof("acquisition started: %d nodes, %d fields, link %s %s",
		len(a.Nodes), cfg.FieldCount(), cfg.Link.Network, cfg.Link.Address)

	if err := loop.Run(ctx); err != nil {
		log.Errorf("acquisition stopped: %v", err)
	}
	<-relay.Done()
	log.Info("acquisition stopped")
}
