package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"capmetrics-agent/internal/model"
)

// DefaultPageSize is the number of rows fetched per page when none is
// configured.
const DefaultPageSize = 100

const (
	whereWithinTenant  = `WHERE "tenantId"=:tenantId AND "groupId">:groupId`
	whereAcrossTenants = `WHERE token("tenantId") > token(:tenantId)`
)

// Cursor marks the last row consumed from a page. Every continuation query
// is derived from the cursor of the page immediately before it, and a cursor
// is never reused once consumed.
type Cursor struct {
	TenantID string
	GroupID  string
}

// Scanner walks the scaling_group table to completion. The table is
// partitioned by hash of tenantId with groups ordered inside a tenant, so
// there is no single "scan everything" query; the scanner stitches one
// together from page continuations. It is strictly sequential: each page
// request depends on the previous page's cursor.
type Scanner struct {
	querier  Querier
	pageSize int
	logger   *slog.Logger
}

func NewScanner(querier Querier, pageSize int, logger *slog.Logger) *Scanner {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Scanner{querier: querier, pageSize: pageSize, logger: logger}
}

// ScanAll returns every row of the table exactly once. Rows always carry
// tenantId, groupId, desired and created_at; extraColumns adds more.
//
// The walk starts with an unconditioned page in the store's intrinsic order
// (token of tenantId, then groupId). While pages come back full, the last
// tenant on the page may have more groups, so within-tenant continuations
// drain it; a short page for that tenant means it is exhausted and a token
// continuation jumps to the tenants after it. An empty page ends the scan.
//
// Any fetch error aborts the whole scan with no partial result; the caller
// restarts from scratch.
func (s *Scanner) ScanAll(ctx context.Context, extraColumns []string) ([]model.ScalingGroupRecord, error) {
	first := selectStmt(extraColumns, "")
	withinTenant := selectStmt(extraColumns, whereWithinTenant)
	acrossTenants := selectStmt(extraColumns, whereAcrossTenants)

	batch, err := s.querier.Query(ctx, first, map[string]any{"limit": s.pageSize})
	if err != nil {
		return nil, fmt.Errorf("scan first page: %w", err)
	}
	if len(batch) < s.pageSize {
		return batch, nil
	}

	groups := batch
	for len(batch) > 0 {
		cur := cursorAfter(batch)
		for len(batch) == s.pageSize {
			batch, err = s.querier.Query(ctx, withinTenant, map[string]any{
				"limit":    s.pageSize,
				"tenantId": cur.TenantID,
				"groupId":  cur.GroupID,
			})
			if err != nil {
				return nil, fmt.Errorf("scan tenant %s after group %s: %w", cur.TenantID, cur.GroupID, err)
			}
			groups = append(groups, batch...)
			if len(batch) > 0 {
				cur.GroupID = batch[len(batch)-1].GroupID
			}
		}
		batch, err = s.querier.Query(ctx, acrossTenants, map[string]any{
			"limit":    s.pageSize,
			"tenantId": cur.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("scan past tenant %s: %w", cur.TenantID, err)
		}
		groups = append(groups, batch...)
	}

	if s.logger != nil {
		s.logger.Debug("full table scan finished", "rows", len(groups), "page_size", s.pageSize)
	}
	return groups, nil
}

func cursorAfter(batch []model.ScalingGroupRecord) Cursor {
	last := batch[len(batch)-1]
	return Cursor{TenantID: last.TenantID, GroupID: last.GroupID}
}

// selectStmt builds one of the three scan query shapes. Columns are sorted
// and deduplicated so the same logical scan always issues identical
// statements.
func selectStmt(extraColumns []string, where string) string {
	cols := map[string]struct{}{
		`"tenantId"`: {},
		`"groupId"`:  {},
		"desired":    {},
		"created_at": {},
	}
	for _, c := range extraColumns {
		cols[c] = struct{}{}
	}
	sorted := make([]string, 0, len(cols))
	for c := range cols {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	stmt := "SELECT " + strings.Join(sorted, ",") + " FROM scaling_group"
	if where != "" {
		stmt += " " + where
	}
	return stmt + " LIMIT :limit;"
}
