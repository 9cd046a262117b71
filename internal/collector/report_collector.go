package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"capmetrics-agent/internal/metrics"
	"capmetrics-agent/internal/model"
	"capmetrics-agent/internal/store"
)

// ReportCollector runs one full collection pass: scan the group store,
// filter, fan out to the inventory service per tenant, aggregate, and
// assemble the capacity report. Each pass is all-or-nothing; an error at
// any stage discards the whole pass.
type ReportCollector struct {
	scanner *store.Scanner
	fanout  *metrics.Fanout
	region  string
	logger  *slog.Logger
}

func NewReportCollector(scanner *store.Scanner, fanout *metrics.Fanout, region string, logger *slog.Logger) *ReportCollector {
	return &ReportCollector{scanner: scanner, fanout: fanout, region: region, logger: logger}
}

func (c *ReportCollector) Collect(ctx context.Context) (model.CapacityReport, error) {
	started := time.Now()

	records, err := c.scanner.ScanAll(ctx, []string{store.StatusColumn, metrics.LaunchConfigColumn})
	if err != nil {
		return model.CapacityReport{}, fmt.Errorf("scan scaling groups: %w", err)
	}

	groups := store.Filter(records, store.NotDisabled)
	tenants := metrics.GroupByTenant(groups)
	c.logger.Info("store scan complete",
		"rows", len(records), "groups", len(groups), "tenants", len(tenants))

	servers, err := c.fanout.CollectServers(ctx, tenants)
	if err != nil {
		return model.CapacityReport{}, err
	}

	groupMetrics, totals := metrics.Aggregate(tenants, servers)
	report := model.CapacityReport{
		RunID:        uuid.NewString(),
		Region:       c.region,
		GeneratedAt:  time.Now().UTC(),
		TotalDesired: totals.Desired,
		TotalActual:  totals.Actual,
		Groups:       groupMetrics,
		Drifts:       metrics.DetectAllDrift(tenants, servers),
		PoolPins:     metrics.PoolPins(groups),
	}

	c.logger.Info("collection pass finished",
		"run_id", report.RunID,
		"total_desired", report.TotalDesired,
		"total_actual", report.TotalActual,
		"drifted_groups", len(report.Drifts),
		"duration", time.Since(started))
	return report, nil
}
