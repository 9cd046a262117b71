package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capmetrics-agent/internal/collector"
	"capmetrics-agent/internal/config"
	"capmetrics-agent/internal/inventory"
	"capmetrics-agent/internal/metrics"
	"capmetrics-agent/internal/model"
	"capmetrics-agent/internal/store"
	"capmetrics-agent/internal/stream"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *collector.Scheduler
	sink      stream.Sink
	health    *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("report sink: %w", err)
	}

	querier, err := store.NewGatewayQuerier(cfg.StoreGateways, cfg.Keyspace, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("store gateway: %w", err)
	}
	scanner := store.NewScanner(querier, cfg.PageSize, logger)

	auth := inventory.StaticAuthenticator{
		Token:            cfg.InventoryToken,
		EndpointTemplate: cfg.InventoryEndpoint,
	}
	invClient := inventory.NewClient(auth, nil, cfg.InventoryPageLimit, logger)
	fanout := metrics.NewFanout(invClient, inventory.ActiveOrBuild, cfg.Concurrency, logger)

	health := NewHealthStatus()
	wrappedSink := &healthSink{sink: sink, health: health}

	reports := collector.NewReportCollector(scanner, fanout, cfg.Region, logger)
	scheduler := collector.NewScheduler(logger, reports, wrappedSink, cfg.CollectInterval, cfg.ErrorBackoff)

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		sink:      wrappedSink,
		health:    health,
	}, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting capmetrics-agent",
		"region", a.cfg.Region, "keyspace", a.cfg.Keyspace, "sink_mode", a.cfg.SinkMode)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// Agent terminated by itself (one-shot pass done, runtime error, or parent ctx canceled).
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
			// graceful stop completed in time
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("capmetrics-agent stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}

type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) SendReport(ctx stream.Context, report model.CapacityReport) error {
	err := s.sink.SendReport(ctx, report)
	if err != nil {
		s.health.SetSinkConnected(false)
		return err
	}
	s.health.SetSinkConnected(true)
	s.health.MarkReport(report.GeneratedAt)
	return nil
}

func (s *healthSink) Close(ctx stream.Context) error {
	return s.sink.Close(ctx)
}
