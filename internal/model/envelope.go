package model

import "time"

type FrameType string

const (
	FrameTypeCapacityReport FrameType = "capacity_report"
)

// Envelope is transport-agnostic framing for stream payloads.
type Envelope struct {
	Type      FrameType `json:"type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}
