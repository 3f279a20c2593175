// cmd/display/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/display"
	"github.com/tamzrod/energy-relay/internal/link"
	"github.com/tamzrod/energy-relay/internal/logging"
	"github.com/tamzrod/energy-relay/internal/metrics"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "configs/monitor.yaml", "path to config file")
	clearScreen := pflag.Bool("clear", true, "clear the terminal before each frame")
	pflag.Parse()

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
	m.Serve(ctx, cfg.Metrics.DisplayAddr, log)

	srv, err := link.Listen(link.ServerConfig{
		Network:    cfg.Link.Network,
		Address:    cfg.Link.Address,
		Fields:     cfg.FieldCount(),
		BufferSize: cfg.Link.BufferSize,
		Timeout:    config.Ms(cfg.Display.AcceptTimeoutMs),
		SyncWait:   config.Ms(cfg.Link.SyncWaitMs),
	}, log)
	if err != nil {
		log.Fatalf("link listen failed: %v", err)
	}

	panel := display.NewPanel(os.Stdout, display.LayoutFrom(cfg.Display))
	panel.ClearScreen = *clearScreen

	s := display.NewScheduler(srv, panel, display.Config{
		Interval: config.Ms(cfg.Display.IntervalMs),
		Fields:   cfg.FieldCount(),
	}, log, m)

	if err := s.Run(ctx); err != nil {
		log.Errorf("display stopped: %v", err)
	}
}
