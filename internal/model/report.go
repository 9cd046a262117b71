package model

import "time"

// CapacityReport is the outcome of one full scan-and-enrich pass over a
// region. Groups are sorted descending by divergence; Drifts and PoolPins
// are present only when something was found.
type CapacityReport struct {
	RunID        string          `json:"run_id"`
	Region       string          `json:"region"`
	GeneratedAt  time.Time       `json:"generated_at"`
	TotalDesired int             `json:"total_desired"`
	TotalActual  int             `json:"total_actual"`
	Groups       []GroupMetrics  `json:"groups"`
	Drifts       []GroupDrift    `json:"drifts,omitempty"`
	PoolPins     []LaunchPoolPin `json:"pool_pins,omitempty"`
}

// LaunchPoolPin flags a group whose launch configuration pins new servers to
// a load balancer pool.
type LaunchPoolPin struct {
	TenantID string `json:"tenant_id"`
	GroupID  string `json:"group_id"`
	Pool     string `json:"pool"`
}
