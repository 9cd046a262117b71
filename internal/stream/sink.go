package stream

import (
	"encoding/json"
	"time"

	"capmetrics-agent/internal/model"
)

type Sink interface {
	SendReport(ctx Context, report model.CapacityReport) error
	Close(ctx Context) error
}

type Context interface {
	Done() <-chan struct{}
	Err() error
	Deadline() (time.Time, bool)
	Value(key any) any
}

type ReportFrame struct {
	RunID         string               `json:"run_id"`
	Region        string               `json:"region"`
	TimestampUnix int64                `json:"timestamp_unix"`
	Report        model.CapacityReport `json:"report"`
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func NewReportFrame(r model.CapacityReport) ReportFrame {
	return ReportFrame{RunID: r.RunID, Region: r.Region, TimestampUnix: r.GeneratedAt.Unix(), Report: r}
}
