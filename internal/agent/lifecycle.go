package agent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	// One-shot mode: a single collection pass, no probe endpoint.
	if a.cfg.CollectInterval <= 0 {
		return a.scheduler.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.runProbeListener(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("report sink close failed", "error", err)
	}
	a.health.SetSinkConnected(false)
}
