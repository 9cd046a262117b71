package model

// GroupMetrics is the capacity triple for one scaling group. Actual counts
// the group's ACTIVE servers, Pending everything else tagged to the group,
// so Actual+Pending always equals the group's live server count.
type GroupMetrics struct {
	TenantID string `json:"tenant_id"`
	GroupID  string `json:"group_id"`
	Desired  int    `json:"desired"`
	Actual   int    `json:"actual"`
	Pending  int    `json:"pending"`
}

// Divergence is how far the group sits from its target capacity. The report
// is sorted on it, largest first.
func (g GroupMetrics) Divergence() int {
	d := g.Desired - g.Actual
	if d < 0 {
		return -d
	}
	return d
}
