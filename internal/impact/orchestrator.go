// Package impact turns a selected asteroid into an impact-physics request and
// runs it against the remote computation.
package impact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/observability"
)

// Status is the lifecycle of a session's impact request.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Orchestrator builds requests with default measurements and invokes the
// computer. It keeps no per-session state; single flight and stale-response
// handling belong to the caller that owns the session.
type Orchestrator struct {
	computer domain.ImpactComputer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Orchestrator.
func New(computer domain.ImpactComputer, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{computer: computer, logger: logger, metrics: metrics}
}

// Compute requests the impact of the given asteroid. A failed computation
// returns no result.
func (o *Orchestrator) Compute(ctx context.Context, a domain.MergedAsteroid) (domain.ImpactResult, error) {
	req := domain.NewImpactRequest(a)
	start := time.Now()

	result, err := o.computer.ComputeImpact(ctx, req)
	o.metrics.ImpactDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.ImpactRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("compute impact for %s: %w", a.ID, err)
	}

	o.metrics.ImpactRequests.WithLabelValues("success").Inc()
	o.logger.Debug("impact computed",
		"asteroid_id", a.ID,
		"diameter_km", req.DiameterKm,
		"velocity_kms", req.VelocityKms,
		"compositions", len(result),
	)
	return result, nil
}
