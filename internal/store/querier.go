package store

import (
	"context"

	"capmetrics-agent/internal/model"
)

// Querier executes one statement against the scaling-group keyspace and maps
// the returned rows. Implementations own connection handling, consistency
// level (the scan wants single-replica reads) and transport timeouts; the
// scanner never retries a failed page.
type Querier interface {
	Query(ctx context.Context, stmt string, params map[string]any) ([]model.ScalingGroupRecord, error)
}
