package metrics

import (
	"sort"

	"capmetrics-agent/internal/model"
)

// Totals are the region-wide desired and actual sums.
type Totals struct {
	Desired int `json:"desired"`
	Actual  int `json:"actual"`
}

// TenantMetrics computes one tenant's per-group capacity metrics. Groups
// with no tagged servers still get a row with zero actual and pending. The
// records must have passed store.Filter, which guarantees Desired is set.
func TenantMetrics(tenantID string, groups []model.ScalingGroupRecord, servers map[string][]model.ServerRecord) []model.GroupMetrics {
	out := make([]model.GroupMetrics, 0, len(groups))
	for _, g := range groups {
		m := model.GroupMetrics{TenantID: tenantID, GroupID: g.GroupID, Desired: *g.Desired}
		for _, s := range servers[g.GroupID] {
			if s.Status == model.ServerStatusActive {
				m.Actual++
			} else {
				m.Pending++
			}
		}
		out = append(out, m)
	}
	return out
}

// Aggregate flattens per-tenant metrics, sums the totals, and sorts the
// groups descending by divergence so the most off-target groups lead the
// report. The sort is stable: ties keep their fan-in order.
func Aggregate(tenants []TenantGroups, servers map[string]map[string][]model.ServerRecord) ([]model.GroupMetrics, Totals) {
	var all []model.GroupMetrics
	for _, tg := range tenants {
		all = append(all, TenantMetrics(tg.TenantID, tg.Groups, servers[tg.TenantID])...)
	}

	var totals Totals
	for _, m := range all {
		totals.Desired += m.Desired
		totals.Actual += m.Actual
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Divergence() > all[j].Divergence()
	})
	return all, totals
}
