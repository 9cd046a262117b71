package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"capmetrics-agent/internal/model"
)

// GroupTagKey is the instance metadata key that ties a server to its scaling
// group.
const GroupTagKey = "autoscale:group_id"

const (
	defaultPageLimit  = 100
	maxFetchAttempts  = 5
	baseRetryInterval = 2 * time.Second
)

// serverDetail is the wire shape of one server in the inventory listing.
type serverDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Flavor struct {
		ID string `json:"id"`
	} `json:"flavor"`
	Image struct {
		ID string `json:"id"`
	} `json:"image"`
	Metadata map[string]string `json:"metadata"`
}

type serverListPage struct {
	Servers []serverDetail `json:"servers"`
}

// Client lists a tenant's live compute instances from the inventory service.
// Listing is paged with limit/marker continuation and each page fetch is
// retried with exponential backoff; retries live here, in the transport, not
// in the collection core.
type Client struct {
	http          *http.Client
	auth          Authenticator
	pageLimit     int
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewClient(auth Authenticator, httpClient *http.Client, pageLimit int, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	return &Client{http: httpClient, auth: auth, pageLimit: pageLimit, retryInterval: baseRetryInterval, logger: logger}
}

// ListServerDetails returns every live server of the tenant. The marker for
// each continuation page is the id of the previous page's last server; a
// short page ends the listing.
func (c *Client) ListServerDetails(ctx context.Context, tenantID string) ([]model.ServerRecord, error) {
	cred, err := c.auth.Authenticate(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("authenticate tenant %s: %w", tenantID, err)
	}
	listURL := strings.TrimRight(cred.Endpoint, "/") + "/servers/detail"

	var all []model.ServerRecord
	marker := ""
	for {
		page, err := c.fetchPage(ctx, listURL, cred.Token, marker)
		if err != nil {
			return nil, fmt.Errorf("list servers for tenant %s: %w", tenantID, err)
		}
		for _, s := range page {
			all = append(all, model.ServerRecord{
				ID:       s.ID,
				Status:   s.Status,
				FlavorID: s.Flavor.ID,
				ImageID:  s.Image.ID,
				GroupID:  s.Metadata[GroupTagKey],
			})
		}
		if len(page) < c.pageLimit {
			return all, nil
		}
		marker = page[len(page)-1].ID
	}
}

func (c *Client) fetchPage(ctx context.Context, listURL, token, marker string) ([]serverDetail, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageLimit))
	if marker != "" {
		query.Set("marker", marker)
	}
	pageURL := listURL + "?" + query.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		page, err := c.fetchOnce(ctx, pageURL, token)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		if attempt < maxFetchAttempts {
			wait := c.retryInterval << (attempt - 1)
			if c.logger != nil {
				c.logger.Warn("inventory page fetch failed, retrying", "url", pageURL, "attempt", attempt, "wait", wait, "error", err)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxFetchAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, pageURL, token string) ([]serverDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("X-Auth-Token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inventory returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var page serverListPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode server list: %w", err)
	}
	return page.Servers, nil
}
