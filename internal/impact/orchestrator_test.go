package impact_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/impact"
	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComputer struct {
	requests []domain.ImpactRequest
	result   domain.ImpactResult
	err      error
}

func (r *recordingComputer) ComputeImpact(_ context.Context, req domain.ImpactRequest) (domain.ImpactResult, error) {
	r.requests = append(r.requests, req)
	return r.result, r.err
}

func ptr[T any](v T) *T { return &v }

func TestOrchestrator_Compute_UsesMeasurements(t *testing.T) {
	comp := &recordingComputer{result: domain.ImpactResult{
		domain.Stony: {ShockwaveRadiusKm: ptr(12.0)},
	}}
	metrics := observability.NewMetricsForTesting()
	apophis := domain.MergedAsteroid{
		ID:          "2099942",
		Name:        "Apophis",
		DiameterKm:  domain.Available(0.37),
		VelocityKms: domain.Available(7.4),
	}

	result, err := impact.New(comp, slog.Default(), metrics).Compute(context.Background(), apophis)
	require.NoError(t, err)

	require.Len(t, comp.requests, 1)
	assert.Equal(t, domain.ImpactRequest{DiameterKm: 0.37, VelocityKms: 7.4, Angle: 45}, comp.requests[0])
	assert.Contains(t, result, domain.Stony)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ImpactRequests.WithLabelValues("success")), 1e-9)
}

func TestOrchestrator_Compute_NoDetailRecordUsesDefaults(t *testing.T) {
	comp := &recordingComputer{result: domain.ImpactResult{}}
	bare := domain.MergedAsteroid{ID: "3542519", Name: "(2010 PK9)"}

	_, err := impact.New(comp, slog.Default(), observability.NewMetricsForTesting()).Compute(context.Background(), bare)
	require.NoError(t, err)

	require.Len(t, comp.requests, 1)
	assert.Equal(t, domain.ImpactRequest{DiameterKm: 1, VelocityKms: 20, Angle: 45}, comp.requests[0])
}

func TestOrchestrator_Compute_Error(t *testing.T) {
	comp := &recordingComputer{
		result: domain.ImpactResult{domain.Metallic: {}},
		err:    errors.New("impact API error: status 502"),
	}
	metrics := observability.NewMetricsForTesting()

	result, err := impact.New(comp, slog.Default(), metrics).
		Compute(context.Background(), domain.MergedAsteroid{ID: "2101955"})
	require.Error(t, err)
	assert.Nil(t, result, "no partial result on failure")
	assert.Contains(t, err.Error(), "2101955")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ImpactRequests.WithLabelValues("error")), 1e-9)
}
