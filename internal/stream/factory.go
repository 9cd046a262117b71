package stream

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"capmetrics-agent/internal/config"
)

const defaultReportMethod = "/capmetrics.v1.ReportService/StreamCapacityReports"

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.SinkMode {
	case config.SinkModeStdout:
		return NewStdoutSink(nil), nil
	case config.SinkModeGRPC:
		method := cfg.GRPCReportMethod
		if method == "" {
			method = defaultReportMethod
		}
		return NewGRPCClient(cfg.BackendGRPCAddr, tlsCfg, cfg.BackendToken, method, logger), nil
	case config.SinkModeWebSocket:
		return NewWebSocketClient(cfg.BackendWSURL, cfg.BackendToken, tlsCfg, cfg.WebSocketWriteTimeout, cfg.WebSocketPingInterval, logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink mode %q", cfg.SinkMode)
	}
}
