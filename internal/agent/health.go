package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	sinkConnected atomic.Bool
	lastReportAt  atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	h := &HealthStatus{}
	h.sinkConnected.Store(false)
	return h
}

func (h *HealthStatus) SetSinkConnected(ok bool) {
	h.sinkConnected.Store(ok)
}

func (h *HealthStatus) MarkReport(ts time.Time) {
	h.lastReportAt.Store(ts.UnixNano())
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"sink_connected": h.sinkConnected.Load(),
	}
	if v := h.lastReportAt.Load(); v > 0 {
		out["last_report_at"] = time.Unix(0, v).UTC()
	}
	return out
}
