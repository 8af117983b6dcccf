package domain

import "context"

// CatalogSource lists the asteroids a user can choose from.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]CatalogEntry, error)
}

// DetailSource provides enrichment records keyed by catalog id.
type DetailSource interface {
	FetchDetails(ctx context.Context) ([]DetailRecord, error)
}

// ImpactComputer runs the remote impact-physics computation.
type ImpactComputer interface {
	ComputeImpact(ctx context.Context, req ImpactRequest) (ImpactResult, error)
}

// PointStore remembers the last selected map point. Writes are best-effort;
// callers must not depend on a stored point for correctness.
type PointStore interface {
	SavePoint(ctx context.Context, p GeoPoint) error

	// LastPoint returns the most recent stored point, or false if none.
	LastPoint(ctx context.Context) (GeoPoint, bool, error)
}
