package inventory

import (
	"context"

	"capmetrics-agent/internal/model"
)

// ServerLister is the slice of Client that enrichment needs.
type ServerLister interface {
	ListServerDetails(ctx context.Context, tenantID string) ([]model.ServerRecord, error)
}

// StatusPredicate accepts or rejects one live server.
type StatusPredicate func(model.ServerRecord) bool

// ActiveOrBuild keeps the statuses that count toward a group's capacity.
func ActiveOrBuild(s model.ServerRecord) bool {
	return s.Status == model.ServerStatusActive || s.Status == model.ServerStatusBuild
}

// GroupServers returns the tenant's scaling-group servers keyed by group id.
// Untagged servers are dropped first, then the status predicate is applied.
// No ordering between groups is guaranteed.
func GroupServers(ctx context.Context, lister ServerLister, tenantID string, keep StatusPredicate) (map[string][]model.ServerRecord, error) {
	servers, err := lister.ListServerDetails(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.ServerRecord)
	for _, s := range servers {
		if s.GroupID == "" {
			continue
		}
		if keep != nil && !keep(s) {
			continue
		}
		grouped[s.GroupID] = append(grouped[s.GroupID], s)
	}
	return grouped, nil
}
