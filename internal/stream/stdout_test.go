package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capmetrics-agent/internal/model"
)

func sampleReport() model.CapacityReport {
	return model.CapacityReport{
		RunID:        "run-1",
		Region:       "ord",
		GeneratedAt:  time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		TotalDesired: 9,
		TotalActual:  4,
		Groups: []model.GroupMetrics{
			{TenantID: "t1", GroupID: "g1", Desired: 5, Actual: 1, Pending: 2},
			{TenantID: "t2", GroupID: "g2", Desired: 4, Actual: 3, Pending: 0},
		},
		Drifts: []model.GroupDrift{
			{TenantID: "t1", GroupID: "g1", Configs: []model.ServerConfig{
				{FlavorID: "flavorA", ImageID: "imageX"},
				{FlavorID: "flavorB", ImageID: "imageX"},
			}},
		},
		PoolPins: []model.LaunchPoolPin{{TenantID: "t2", GroupID: "g2", Pool: "pool-3"}},
	}
}

func TestFormatReport(t *testing.T) {
	text := FormatReport(sampleReport())
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, "run run-1 region ord", lines[0])
	assert.Equal(t, "total desired: 9, total actual: 4", lines[1])
	assert.Equal(t, "tenant t1 group g1 desired=5 actual=1 pending=2", lines[2])
	assert.Equal(t, "tenant t2 group g2 desired=4 actual=3 pending=0", lines[3])
	assert.Equal(t, "tenant t1 group g1 diff configs: (flavorA,imageX) (flavorB,imageX)", lines[4])
	assert.Equal(t, "tenant t2 group g2 lb pool: pool-3", lines[5])
}

func TestStdoutSinkWritesReport(t *testing.T) {
	var b strings.Builder
	sink := NewStdoutSink(&b)

	require.NoError(t, sink.SendReport(context.Background(), sampleReport()))
	require.NoError(t, sink.Close(context.Background()))
	assert.Contains(t, b.String(), "total desired: 9, total actual: 4")
}
