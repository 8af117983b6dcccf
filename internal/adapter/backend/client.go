package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/observability"
)

// Endpoint labels used for metrics and error messages.
const (
	endpointCatalog = "catalog"
	endpointDetails = "details"
	endpointImpact  = "impact"
)

// Client talks to the impact backend. It implements domain.CatalogSource,
// domain.DetailSource and domain.ImpactComputer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchCatalog returns the ordered asteroid listing.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	if err := c.do(ctx, http.MethodGet, "/api/catalog", endpointCatalog, nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	return entries, nil
}

// FetchDetails returns the enrichment records.
func (c *Client) FetchDetails(ctx context.Context) ([]domain.DetailRecord, error) {
	var details []domain.DetailRecord
	if err := c.do(ctx, http.MethodGet, "/api/details", endpointDetails, nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// ComputeImpact posts the physics request and returns the per-composition result.
func (c *Client) ComputeImpact(ctx context.Context, req domain.ImpactRequest) (domain.ImpactResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode impact request: %w", err)
	}
	var result domain.ImpactResult
	if err := c.do(ctx, http.MethodPost, "/api/impact", endpointImpact, body, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = domain.ImpactResult{}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	err = c.send(req, endpoint, out)
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Debug("backend request failed", "endpoint", endpoint, "error", err)
		return err
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func (c *Client) send(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s API error: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
