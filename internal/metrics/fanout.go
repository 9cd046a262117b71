package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"capmetrics-agent/internal/inventory"
	"capmetrics-agent/internal/model"
)

// DefaultConcurrency caps how many inventory calls run at once during a
// collection pass.
const DefaultConcurrency = 10

// TenantGroups is one tenant's filtered scaling groups in scan order.
type TenantGroups struct {
	TenantID string
	Groups   []model.ScalingGroupRecord
}

// GroupByTenant buckets records by tenant. Tenants are ordered by first
// appearance in the scan and records keep their scan order within a tenant.
func GroupByTenant(records []model.ScalingGroupRecord) []TenantGroups {
	index := make(map[string]int)
	var out []TenantGroups
	for _, r := range records {
		i, ok := index[r.TenantID]
		if !ok {
			i = len(out)
			index[r.TenantID] = i
			out = append(out, TenantGroups{TenantID: r.TenantID})
		}
		out[i].Groups = append(out[i].Groups, r)
	}
	return out
}

// Fanout runs one inventory enrichment task per tenant. Every task is
// dispatched immediately; the weighted semaphore only throttles how many
// calls are in flight, it assigns no priority. A permit is released
// unconditionally when the call returns, success or not.
type Fanout struct {
	lister      inventory.ServerLister
	keep        inventory.StatusPredicate
	concurrency int64
	logger      *slog.Logger
}

func NewFanout(lister inventory.ServerLister, keep inventory.StatusPredicate, concurrency int, logger *slog.Logger) *Fanout {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fanout{lister: lister, keep: keep, concurrency: int64(concurrency), logger: logger}
}

// CollectServers returns every tenant's grouped servers keyed by tenant id.
// The batch is all-or-nothing: the first tenant failure fails the call,
// in-flight tasks are left to finish and their results are discarded.
func (f *Fanout) CollectServers(ctx context.Context, tenants []TenantGroups) (map[string]map[string][]model.ServerRecord, error) {
	sem := semaphore.NewWeighted(f.concurrency)

	var (
		mu  sync.Mutex
		out = make(map[string]map[string][]model.ServerRecord, len(tenants))
		g   errgroup.Group
	)
	for _, tg := range tenants {
		tg := tg
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			grouped, err := inventory.GroupServers(ctx, f.lister, tg.TenantID, f.keep)
			sem.Release(1)
			if err != nil {
				return fmt.Errorf("enrich tenant %s: %w", tg.TenantID, err)
			}
			mu.Lock()
			out[tg.TenantID] = grouped
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if f.logger != nil {
		f.logger.Debug("tenant fan-out finished", "tenants", len(tenants))
	}
	return out, nil
}
