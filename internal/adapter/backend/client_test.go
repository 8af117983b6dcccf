package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchCatalog_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/catalog", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"id":"a1","name":"Apophis"},{"id":"b2","name":"Bennu"}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	entries, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.CatalogEntry{{ID: "a1", Name: "Apophis"}, {ID: "b2", Name: "Bennu"}}, entries)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(endpointCatalog, "success")), 1e-9)
}

func TestClient_FetchCatalog_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	entries, err := testClient(srv.URL).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestClient_FetchDetails_OptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/details", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[
			{"id":"a1","date":"2029-04-13","diameter_km":0.37,"velocity_kms":7.4},
			{"id":"b2","diameter_km":null}
		]`))
	}))
	defer srv.Close()

	details, err := testClient(srv.URL).FetchDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)

	require.NotNil(t, details[0].Date)
	assert.Equal(t, "2029-04-13", *details[0].Date)
	require.NotNil(t, details[0].VelocityKms)
	assert.InDelta(t, 7.4, *details[0].VelocityKms, 1e-9)

	assert.Nil(t, details[1].Date)
	assert.Nil(t, details[1].DiameterKm)
	assert.Nil(t, details[1].VelocityKms)
}

func TestClient_ComputeImpact_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/impact", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var req domain.ImpactRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.ImpactRequest{DiameterKm: 1, VelocityKms: 20, Angle: 45}, req)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"S":{"shockwave_radius_km":2.5,"crater_radius_km":0.55,"energy_megatons":1501.13,"comparison":{"summary":"≈ 7.5× the energy of Krakatoa (1883) (200 Mt TNT)"}}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ComputeImpact(context.Background(), domain.ImpactRequest{DiameterKm: 1, VelocityKms: 20, Angle: 45})
	require.NoError(t, err)

	stony, ok := result[domain.Stony]
	require.True(t, ok)
	require.NotNil(t, stony.ShockwaveRadiusKm)
	assert.InDelta(t, 2.5, *stony.ShockwaveRadiusKm, 1e-9)
	require.NotNil(t, stony.Comparison)
	assert.Contains(t, stony.Comparison.Summary, "Krakatoa")
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch NEO feed"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchDetails(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "details")
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(endpointDetails, "error")), 1e-9)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog response")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.ComputeImpact(context.Background(), domain.ImpactRequest{DiameterKm: 1, VelocityKms: 20, Angle: 45})
	require.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:5000/", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "http://localhost:5000", c.baseURL)
}
