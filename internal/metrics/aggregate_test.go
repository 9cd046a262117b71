package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capmetrics-agent/internal/model"
)

func group(tenant, id string, desired int) model.ScalingGroupRecord {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return model.ScalingGroupRecord{TenantID: tenant, GroupID: id, Desired: &desired, CreatedAt: &created}
}

func serversWithStatus(groupID string, statuses ...string) []model.ServerRecord {
	out := make([]model.ServerRecord, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, model.ServerRecord{ID: groupID + "-s" + string(rune('a'+i)), Status: s, GroupID: groupID})
	}
	return out
}

func TestTenantMetricsSplitsActiveAndPending(t *testing.T) {
	groups := []model.ScalingGroupRecord{group("t1", "g1", 5)}
	servers := map[string][]model.ServerRecord{
		"g1": serversWithStatus("g1", "ACTIVE", "ACTIVE", "ACTIVE", "BUILD", "BUILD"),
	}

	got := TenantMetrics("t1", groups, servers)
	require.Len(t, got, 1)
	assert.Equal(t, model.GroupMetrics{TenantID: "t1", GroupID: "g1", Desired: 5, Actual: 3, Pending: 2}, got[0])
}

func TestTenantMetricsEmitsZerosForGroupsWithoutServers(t *testing.T) {
	groups := []model.ScalingGroupRecord{group("t1", "g2", 4)}

	got := TenantMetrics("t1", groups, map[string][]model.ServerRecord{})
	require.Len(t, got, 1)
	assert.Equal(t, model.GroupMetrics{TenantID: "t1", GroupID: "g2", Desired: 4, Actual: 0, Pending: 0}, got[0])
}

func TestTenantMetricsCountsEveryLiveServer(t *testing.T) {
	groups := []model.ScalingGroupRecord{group("t1", "g1", 7)}
	live := serversWithStatus("g1", "ACTIVE", "BUILD", "HARD_REBOOT", "ACTIVE")

	got := TenantMetrics("t1", groups, map[string][]model.ServerRecord{"g1": live})
	require.Len(t, got, 1)
	assert.Equal(t, len(live), got[0].Actual+got[0].Pending)
}

func TestAggregateSortsByDivergenceDescending(t *testing.T) {
	tenants := []TenantGroups{{
		TenantID: "t1",
		// Divergences come out as 1 for g-small, 10 for g-large, 3 for g-mid.
		Groups: []model.ScalingGroupRecord{
			group("t1", "g-small", 3),
			group("t1", "g-large", 10),
			group("t1", "g-mid", 3),
		},
	}}
	servers := map[string]map[string][]model.ServerRecord{
		"t1": {
			"g-small": serversWithStatus("g-small", "ACTIVE", "ACTIVE"),
			"g-mid":   serversWithStatus("g-mid", "BUILD", "BUILD", "BUILD"),
		},
	}

	got, totals := Aggregate(tenants, servers)
	require.Len(t, got, 3)
	assert.Equal(t, "g-large", got[0].GroupID)
	assert.Equal(t, "g-mid", got[1].GroupID)
	assert.Equal(t, "g-small", got[2].GroupID)
	assert.Equal(t, Totals{Desired: 16, Actual: 2}, totals)
}

func TestAggregateSortIsStableOnTies(t *testing.T) {
	tenants := []TenantGroups{{
		TenantID: "t1",
		Groups: []model.ScalingGroupRecord{
			group("t1", "g-first", 2),
			group("t1", "g-second", 2),
			group("t1", "g-third", 2),
		},
	}}

	// No servers anywhere: every group diverges by 2.
	got, _ := Aggregate(tenants, map[string]map[string][]model.ServerRecord{})
	require.Len(t, got, 3)
	assert.Equal(t, "g-first", got[0].GroupID)
	assert.Equal(t, "g-second", got[1].GroupID)
	assert.Equal(t, "g-third", got[2].GroupID)
}

func TestAggregateSpansTenants(t *testing.T) {
	tenants := []TenantGroups{
		{TenantID: "t1", Groups: []model.ScalingGroupRecord{group("t1", "g1", 2)}},
		{TenantID: "t2", Groups: []model.ScalingGroupRecord{group("t2", "g1", 6)}},
	}
	servers := map[string]map[string][]model.ServerRecord{
		"t1": {"g1": serversWithStatus("g1", "ACTIVE", "ACTIVE")},
		"t2": {"g1": serversWithStatus("g1", "ACTIVE")},
	}

	got, totals := Aggregate(tenants, servers)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].TenantID, "t2 diverges by 5 and leads")
	assert.Equal(t, Totals{Desired: 8, Actual: 3}, totals)
}
