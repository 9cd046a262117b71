package collector

import (
	"context"
	"log/slog"
	"time"

	"capmetrics-agent/internal/stream"
)

// Scheduler runs collection passes and hands each finished report to the
// sink. With a zero interval it runs a single pass and returns its error;
// with a positive interval it keeps running on a ticker, logging failed
// passes and backing off before the next one.
type Scheduler struct {
	logger       *slog.Logger
	collector    *ReportCollector
	sink         stream.Sink
	interval     time.Duration
	errorBackoff time.Duration
}

func NewScheduler(logger *slog.Logger, collector *ReportCollector, sink stream.Sink, interval, errorBackoff time.Duration) *Scheduler {
	if errorBackoff <= 0 {
		errorBackoff = time.Second
	}
	return &Scheduler{
		logger:       logger,
		collector:    collector,
		sink:         sink,
		interval:     interval,
		errorBackoff: errorBackoff,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return s.collectAndSend(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.collectAndSend(ctx); err != nil {
		s.logger.Error("collection pass failed", "error", err)
		s.sleepWithContext(ctx, s.errorBackoff)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.collectAndSend(ctx); err != nil {
				s.logger.Error("collection pass failed", "error", err)
				s.sleepWithContext(ctx, s.errorBackoff)
			}
		}
	}
}

func (s *Scheduler) collectAndSend(ctx context.Context) error {
	report, err := s.collector.Collect(ctx)
	if err != nil {
		return err
	}
	return s.sink.SendReport(ctx, report)
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
