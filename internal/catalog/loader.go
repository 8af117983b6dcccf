// Package catalog fetches the asteroid catalog and its detail records and
// merges them into the list a user chooses from.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Loader fetches both sources concurrently and merges them. A failure of
// either fetch fails the whole load; partial catalogs are never returned.
type Loader struct {
	catalog domain.CatalogSource
	details domain.DetailSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader over the given sources.
func NewLoader(catalog domain.CatalogSource, details domain.DetailSource, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		catalog: catalog,
		details: details,
		logger:  logger,
		metrics: metrics,
	}
}

// Load returns the merged catalog in catalog-source order.
func (l *Loader) Load(ctx context.Context) ([]domain.MergedAsteroid, error) {
	start := time.Now()

	var (
		entries []domain.CatalogEntry
		details []domain.DetailRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if entries, err = l.catalog.FetchCatalog(gctx); err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if details, err = l.details.FetchDetails(gctx); err != nil {
			return fmt.Errorf("fetch details: %w", err)
		}
		return nil
	})
	err := g.Wait()
	l.metrics.CatalogLoadTime.Observe(time.Since(start).Seconds())
	if err != nil {
		l.metrics.CatalogLoads.WithLabelValues("error").Inc()
		l.logger.Warn("catalog load failed", "error", err)
		return nil, err
	}

	merged := domain.MergeCatalog(entries, details)

	l.metrics.CatalogLoads.WithLabelValues("success").Inc()
	l.metrics.CatalogSize.Observe(float64(len(merged)))
	l.logger.Debug("catalog loaded", "entries", len(entries), "details", len(details), "merged", len(merged))
	return merged, nil
}
