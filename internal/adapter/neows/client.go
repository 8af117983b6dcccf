package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/impact-sim/internal/observability"
)

const endpointFeed = "neows_feed"

// FeedFetcher retrieves a NeoWs feed for an inclusive date range (YYYY-MM-DD).
type FeedFetcher interface {
	Feed(ctx context.Context, startDate, endDate string) (Feed, error)
}

// Client calls the NASA NeoWs REST API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.nasa.gov/neo/rest/v1",
		metrics: metrics,
		logger:  logger,
	}
}

// Feed fetches near-earth objects with close approaches in the date range.
func (c *Client) Feed(ctx context.Context, startDate, endDate string) (Feed, error) {
	params := url.Values{
		"start_date": {startDate},
		"end_date":   {endDate},
		"api_key":    {c.apiKey},
	}

	start := time.Now()
	feed, err := c.doRequest(ctx, c.baseURL+"/feed?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues(endpointFeed).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpointFeed, "error").Inc()
		c.logger.Debug("neows feed request failed", "start_date", startDate, "end_date", endDate, "error", err)
		return Feed{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpointFeed, "success").Inc()
	return feed, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Feed{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Feed{}, fmt.Errorf("neows feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Feed{}, fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	var feed Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Feed{}, fmt.Errorf("decode response: %w", err)
	}
	return feed, nil
}

// NeoWs API response types.

// Feed is the subset of the /feed response the simulator uses. Objects are
// grouped by close-approach date.
type Feed struct {
	NearEarthObjects map[string][]NearEarthObject `json:"near_earth_objects"`
}

type NearEarthObject struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	EstimatedDiameter estimatedDiameter `json:"estimated_diameter"`
	CloseApproachData []closeApproach   `json:"close_approach_data"`
}

type estimatedDiameter struct {
	Kilometers struct {
		Min float64 `json:"estimated_diameter_min"`
		Max float64 `json:"estimated_diameter_max"`
	} `json:"kilometers"`
}

// NeoWs reports velocity and distance as decimal strings.
type closeApproach struct {
	Date             string `json:"close_approach_date"`
	RelativeVelocity struct {
		KilometersPerSecond string `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}
