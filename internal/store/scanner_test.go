package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capmetrics-agent/internal/model"
)

// fakeQuerier serves pages from an in-memory table held in the store's
// intrinsic order: token of tenantId first, then groupId. Tokens are
// assigned explicitly so tests can control tenant ordering.
type fakeQuerier struct {
	rows   []model.ScalingGroupRecord
	tokens map[string]int
	calls  []call
	failAt int // 1-based call number that fails; 0 means never
}

type call struct {
	stmt   string
	params map[string]any
}

func (f *fakeQuerier) Query(_ context.Context, stmt string, params map[string]any) ([]model.ScalingGroupRecord, error) {
	f.calls = append(f.calls, call{stmt: stmt, params: params})
	if f.failAt > 0 && len(f.calls) >= f.failAt {
		return nil, errors.New("gateway unavailable")
	}

	limit := params["limit"].(int)
	var out []model.ScalingGroupRecord
	switch {
	case strings.Contains(stmt, `token("tenantId")`):
		after := f.tokens[params["tenantId"].(string)]
		for _, r := range f.rows {
			if f.tokens[r.TenantID] > after {
				out = append(out, r)
			}
		}
	case strings.Contains(stmt, `"tenantId"=:tenantId`):
		tenant := params["tenantId"].(string)
		group := params["groupId"].(string)
		for _, r := range f.rows {
			if r.TenantID == tenant && r.GroupID > group {
				out = append(out, r)
			}
		}
	default:
		out = f.rows
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]model.ScalingGroupRecord(nil), out...), nil
}

func record(tenant, group string) model.ScalingGroupRecord {
	desired := 1
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.ScalingGroupRecord{TenantID: tenant, GroupID: group, Desired: &desired, CreatedAt: &created}
}

// table builds a store where tenant order follows the given slice and each
// tenant owns groupCounts[i] groups named g01, g02, ...
func table(tenants []string, groupCounts []int) *fakeQuerier {
	f := &fakeQuerier{tokens: make(map[string]int)}
	for i, t := range tenants {
		f.tokens[t] = i + 1
		for g := 1; g <= groupCounts[i]; g++ {
			f.rows = append(f.rows, record(t, fmt.Sprintf("g%02d", g)))
		}
	}
	return f
}

func key(r model.ScalingGroupRecord) string {
	return r.TenantID + "/" + r.GroupID
}

func TestScanAllVisitsEveryRowExactlyOnce(t *testing.T) {
	tenants := []string{"t1", "t2", "t3", "t4", "t5"}
	counts := []int{1, 4, 9, 2, 7}

	total := 0
	for _, c := range counts {
		total += c
	}

	for pageSize := 1; pageSize <= total+1; pageSize++ {
		f := table(tenants, counts)
		scanner := NewScanner(f, pageSize, nil)

		got, err := scanner.ScanAll(context.Background(), nil)
		require.NoError(t, err, "page size %d", pageSize)
		require.Len(t, got, total, "page size %d", pageSize)

		seen := make(map[string]int)
		for _, r := range got {
			seen[key(r)]++
		}
		for k, n := range seen {
			assert.Equal(t, 1, n, "row %s visited %d times at page size %d", k, n, pageSize)
		}
		assert.Len(t, seen, total, "page size %d", pageSize)
	}
}

func TestScanAllShortFirstPage(t *testing.T) {
	f := table([]string{"t1"}, []int{3})
	scanner := NewScanner(f, 10, nil)

	got, err := scanner.ScanAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Len(t, f.calls, 1, "a short first page needs no continuations")
}

func TestScanAllTenantBoundaryWalk(t *testing.T) {
	// One tenant with 3 groups at page size 2: full first page, a short
	// within-tenant continuation, then an empty token continuation.
	f := table([]string{"t1"}, []int{3})
	scanner := NewScanner(f, 2, nil)

	got, err := scanner.ScanAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Len(t, f.calls, 3)
	assert.NotContains(t, f.calls[0].stmt, "WHERE")
	assert.Contains(t, f.calls[1].stmt, `"groupId">:groupId`)
	assert.Contains(t, f.calls[2].stmt, `token("tenantId")`)

	// The continuation cursor comes from the last row of the page before it.
	assert.Equal(t, "t1", f.calls[1].params["tenantId"])
	assert.Equal(t, "g02", f.calls[1].params["groupId"])
	assert.Equal(t, "t1", f.calls[2].params["tenantId"])
}

func TestScanAllCursorAdvancesThroughFullTenantPages(t *testing.T) {
	// 5 groups at page size 2: two full within-tenant pages before the
	// short one, each continuing from the previous page's last group.
	f := table([]string{"t1"}, []int{5})
	scanner := NewScanner(f, 2, nil)

	got, err := scanner.ScanAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 5)

	var groupCursors []string
	for _, c := range f.calls {
		if strings.Contains(c.stmt, `"groupId">:groupId`) {
			groupCursors = append(groupCursors, c.params["groupId"].(string))
		}
	}
	assert.Equal(t, []string{"g02", "g04"}, groupCursors)
}

func TestScanAllAbortsOnFetchError(t *testing.T) {
	f := table([]string{"t1", "t2"}, []int{3, 3})
	f.failAt = 2
	scanner := NewScanner(f, 2, nil)

	got, err := scanner.ScanAll(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, got, "a failed scan must not return partial output")
}

func TestScanAllIsDeterministic(t *testing.T) {
	first := table([]string{"t1", "t2", "t3"}, []int{3, 1, 4})
	second := table([]string{"t1", "t2", "t3"}, []int{3, 1, 4})

	a, err := NewScanner(first, 3, nil).ScanAll(context.Background(), nil)
	require.NoError(t, err)
	b, err := NewScanner(second, 3, nil).ScanAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelectStmtColumns(t *testing.T) {
	stmt := selectStmt([]string{"status", "launch_config"}, "")
	assert.Equal(t, `SELECT "groupId","tenantId",created_at,desired,launch_config,status FROM scaling_group LIMIT :limit;`, stmt)

	// Requesting a baseline column again must not duplicate it.
	stmt = selectStmt([]string{"desired"}, whereWithinTenant)
	assert.Equal(t, `SELECT "groupId","tenantId",created_at,desired FROM scaling_group WHERE "tenantId"=:tenantId AND "groupId">:groupId LIMIT :limit;`, stmt)
}
