package model

import "time"

// ScalingGroupRecord is one row of the scaling_group table, snapshotted at
// scan time. Desired and CreatedAt are nullable in the store; a row missing
// either is not a usable group and is dropped by store.Filter before any
// downstream stage sees it.
type ScalingGroupRecord struct {
	TenantID  string         `json:"tenant_id"`
	GroupID   string         `json:"group_id"`
	Desired   *int           `json:"desired"`
	CreatedAt *time.Time     `json:"created_at"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ExtraString returns a requested extra column as a string, or "" when the
// column is absent or not textual.
func (r ScalingGroupRecord) ExtraString(column string) string {
	s, _ := r.Extra[column].(string)
	return s
}
