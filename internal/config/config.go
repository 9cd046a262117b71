package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type SinkMode string

const (
	SinkModeStdout    SinkMode = "stdout"
	SinkModeGRPC      SinkMode = "grpc"
	SinkModeWebSocket SinkMode = "websocket"
)

type Config struct {
	Region                string
	StoreGateways         []string
	Keyspace              string
	PageSize              int
	Concurrency           int
	InventoryEndpoint     string
	InventoryToken        string
	InventoryPageLimit    int
	CollectInterval       time.Duration
	ErrorBackoff          time.Duration
	ShutdownTimeout       time.Duration
	ProbeListenAddr       string
	SinkMode              SinkMode
	BackendGRPCAddr       string
	BackendWSURL          string
	BackendToken          string
	GRPCReportMethod      string
	WebSocketWriteTimeout time.Duration
	WebSocketPingInterval time.Duration
	TLSEnabled            bool
	TLSSkipVerify         bool
	TLSCAPath             string
	TLSCertPath           string
	TLSKeyPath            string
	LogJSON               bool
	LogLevel              string
}

func Load() (Config, error) {
	cfg := Config{
		Region:                env("CAPMETRICS_REGION", "dfw"),
		StoreGateways:         envList("CAPMETRICS_STORE_GATEWAYS", "http://127.0.0.1:8480"),
		Keyspace:              env("CAPMETRICS_KEYSPACE", "autoscale"),
		PageSize:              envInt("CAPMETRICS_PAGE_SIZE", 100),
		Concurrency:           envInt("CAPMETRICS_CONCURRENCY", 10),
		InventoryEndpoint:     env("CAPMETRICS_INVENTORY_ENDPOINT", ""),
		InventoryToken:        env("CAPMETRICS_INVENTORY_TOKEN", ""),
		InventoryPageLimit:    envInt("CAPMETRICS_INVENTORY_PAGE_LIMIT", 100),
		CollectInterval:       envDuration("CAPMETRICS_COLLECT_INTERVAL", 0),
		ErrorBackoff:          envDuration("CAPMETRICS_ERROR_BACKOFF", 5*time.Second),
		ShutdownTimeout:       envDuration("CAPMETRICS_SHUTDOWN_TIMEOUT", 20*time.Second),
		ProbeListenAddr:       env("CAPMETRICS_PROBE_ADDR", "0.0.0.0:7543"),
		SinkMode:              SinkMode(strings.ToLower(env("CAPMETRICS_SINK_MODE", string(SinkModeStdout)))),
		BackendGRPCAddr:       env("CAPMETRICS_BACKEND_GRPC_ADDR", "127.0.0.1:3101"),
		BackendWSURL:          env("CAPMETRICS_BACKEND_WS_URL", "ws://127.0.0.1:3101/ws/reports"),
		BackendToken:          env("CAPMETRICS_BACKEND_TOKEN", ""),
		GRPCReportMethod:      env("CAPMETRICS_GRPC_REPORT_METHOD", "/capmetrics.v1.ReportService/StreamCapacityReports"),
		WebSocketWriteTimeout: envDuration("CAPMETRICS_WS_WRITE_TIMEOUT", 5*time.Second),
		WebSocketPingInterval: envDuration("CAPMETRICS_WS_PING_INTERVAL", 10*time.Second),
		TLSEnabled:            envBool("CAPMETRICS_TLS_ENABLED", false),
		TLSSkipVerify:         envBool("CAPMETRICS_TLS_SKIP_VERIFY", false),
		TLSCAPath:             env("CAPMETRICS_TLS_CA_PATH", ""),
		TLSCertPath:           env("CAPMETRICS_TLS_CERT_PATH", ""),
		TLSKeyPath:            env("CAPMETRICS_TLS_KEY_PATH", ""),
		LogJSON:               envBool("CAPMETRICS_LOG_JSON", true),
		LogLevel:              strings.ToLower(env("CAPMETRICS_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("CAPMETRICS_REGION is required")
	}
	if len(c.StoreGateways) == 0 {
		return errors.New("CAPMETRICS_STORE_GATEWAYS is required")
	}
	if strings.TrimSpace(c.Keyspace) == "" {
		return errors.New("CAPMETRICS_KEYSPACE is required")
	}
	if c.PageSize <= 0 {
		return errors.New("CAPMETRICS_PAGE_SIZE must be > 0")
	}
	if c.Concurrency <= 0 {
		return errors.New("CAPMETRICS_CONCURRENCY must be > 0")
	}
	if strings.TrimSpace(c.InventoryEndpoint) == "" {
		return errors.New("CAPMETRICS_INVENTORY_ENDPOINT is required")
	}
	if c.InventoryPageLimit <= 0 {
		return errors.New("CAPMETRICS_INVENTORY_PAGE_LIMIT must be > 0")
	}
	if c.CollectInterval < 0 {
		return errors.New("CAPMETRICS_COLLECT_INTERVAL must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("CAPMETRICS_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.CollectInterval > 0 && strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("CAPMETRICS_PROBE_ADDR is required in interval mode")
	}
	switch c.SinkMode {
	case SinkModeStdout, SinkModeGRPC, SinkModeWebSocket:
	default:
		return fmt.Errorf("unsupported sink mode %q", c.SinkMode)
	}
	if c.SinkMode == SinkModeGRPC {
		if c.BackendGRPCAddr == "" {
			return errors.New("CAPMETRICS_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCReportMethod) == "" {
			return errors.New("CAPMETRICS_GRPC_REPORT_METHOD is required for grpc mode")
		}
	}
	if c.SinkMode == SinkModeWebSocket && c.BackendWSURL == "" {
		return errors.New("CAPMETRICS_BACKEND_WS_URL is required for websocket mode")
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallback string) []string {
	raw := env(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
