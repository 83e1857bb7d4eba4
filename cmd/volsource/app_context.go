package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alexisbeaulieu97/volsource/internal/config"
	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/engine"
	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/metrics"
	"github.com/alexisbeaulieu97/volsource/internal/logger"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

// AppContext bundles long-lived services created at startup.
type AppContext struct {
	Ctx      context.Context
	Config   *config.Config
	Log      *logger.Logger
	Events   *events.LoggingPublisher
	EventLog ports.Logger
	Metrics  *metrics.Collector
	Registry *decoder.Registry
	Pool     *engine.Pool
}

func newAppContext(parent context.Context, root *rootFlags, stderr io.Writer) (*AppContext, error) {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if root.logLevel != "" {
		level = root.logLevel
	}
	if root.verbose {
		level = "debug"
	}
	human := cfg.Logging.HumanReadable && !root.jsonLogs

	log, err := logger.New(logger.Options{Level: level, HumanReadable: human, Writer: stderr, Component: "volsource"})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	eventLog, err := logging.New(logging.Options{Writer: stderr, Level: level, Human: human, Layer: "application", Component: "events"})
	if err != nil {
		return nil, fmt.Errorf("create event logger: %w", err)
	}

	registry := decoder.NewRegistry(log)
	if err := RegisterDecoders(registry, log); err != nil {
		return nil, err
	}

	ctx := ports.WithCorrelationID(parent, ports.GenerateCorrelationID())

	return &AppContext{
		Ctx:      ctx,
		Config:   cfg,
		Log:      log.WithField("correlation_id", ports.GetCorrelationID(ctx)),
		Events:   events.NewLoggingPublisher(eventLog),
		EventLog: eventLog,
		Metrics:  metrics.NewCollector(),
		Registry: registry,
		Pool:     engine.NewPool(cfg.Load.Workers, log),
	}, nil
}

// Close releases the worker pool.
func (a *AppContext) Close() {
	if a == nil || a.Pool == nil {
		return
	}
	a.Pool.Close()
}
