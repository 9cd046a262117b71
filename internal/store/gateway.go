package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"capmetrics-agent/internal/model"
)

// consistencyOne requests single-replica reads; a full scan does not need
// quorum and quorum reads across every partition would hammer the cluster.
const consistencyOne = "ONE"

type gatewayRequest struct {
	Keyspace    string         `json:"keyspace"`
	Statement   string         `json:"statement"`
	Params      map[string]any `json:"params,omitempty"`
	Consistency string         `json:"consistency"`
}

type gatewayResponse struct {
	Rows []map[string]any `json:"rows"`
}

// GatewayQuerier executes scan statements through the store's HTTP query
// gateway, rotating across the configured seed endpoints per request.
type GatewayQuerier struct {
	endpoints []string
	keyspace  string
	http      *http.Client
	next      atomic.Uint64
	logger    *slog.Logger
}

func NewGatewayQuerier(endpoints []string, keyspace string, httpClient *http.Client, logger *slog.Logger) (*GatewayQuerier, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no store gateway endpoints configured")
	}
	if keyspace == "" {
		return nil, fmt.Errorf("store keyspace must not be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	trimmed := make([]string, len(endpoints))
	for i, e := range endpoints {
		trimmed[i] = strings.TrimRight(strings.TrimSpace(e), "/")
	}
	return &GatewayQuerier{endpoints: trimmed, keyspace: keyspace, http: httpClient, logger: logger}, nil
}

func (q *GatewayQuerier) Query(ctx context.Context, stmt string, params map[string]any) ([]model.ScalingGroupRecord, error) {
	body, err := json.Marshal(gatewayRequest{
		Keyspace:    q.keyspace,
		Statement:   stmt,
		Params:      params,
		Consistency: consistencyOne,
	})
	if err != nil {
		return nil, fmt.Errorf("encode gateway request: %w", err)
	}

	endpoint := q.endpoints[q.next.Add(1)%uint64(len(q.endpoints))]
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store gateway %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("store gateway %s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	records := make([]model.ScalingGroupRecord, 0, len(decoded.Rows))
	for _, row := range decoded.Rows {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

// recordFromRow converts one loosely-typed gateway row into the fixed record
// shape. Unparseable desired or created_at values stay nil and are dropped
// later by Filter; unknown columns land in Extra.
func recordFromRow(row map[string]any) model.ScalingGroupRecord {
	var rec model.ScalingGroupRecord
	for k, v := range row {
		switch k {
		case "tenantId":
			rec.TenantID, _ = v.(string)
		case "groupId":
			rec.GroupID, _ = v.(string)
		case "desired":
			if f, ok := v.(float64); ok {
				n := int(f)
				rec.Desired = &n
			}
		case "created_at":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					rec.CreatedAt = &t
				}
			}
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[k] = v
		}
	}
	return rec
}
