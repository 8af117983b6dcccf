// Package flow sequences a simulation session through its stages and applies
// asynchronous catalog and impact results to it.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/observability"
)

// persistTimeout bounds a best-effort point write.
const persistTimeout = 5 * time.Second

// CatalogLoader fetches and merges the asteroid catalog.
type CatalogLoader interface {
	Load(ctx context.Context) ([]domain.MergedAsteroid, error)
}

// ImpactRunner computes the impact of one asteroid.
type ImpactRunner interface {
	Compute(ctx context.Context, a domain.MergedAsteroid) (domain.ImpactResult, error)
}

// Controller owns the stage of a single session. Transition methods never
// block on I/O: catalog loads and impact requests run in goroutines and are
// applied only if the session generation is unchanged when they complete.
// Reset and Back bump the generation and cancel whatever is in flight.
type Controller struct {
	catalog    CatalogLoader
	impact     ImpactRunner
	points     domain.PointStore
	mapDefault domain.MapView
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu         sync.Mutex
	stage      Stage
	generation uint64
	genCtx     context.Context
	genCancel  context.CancelFunc
	closed     bool

	wg sync.WaitGroup
}

// New creates a Controller in the Idle stage. mapDefault is the view shown
// before a point is selected.
func New(catalog CatalogLoader, impact ImpactRunner, points domain.PointStore, mapDefault domain.MapView, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	c := &Controller{
		catalog:    catalog,
		impact:     impact,
		points:     points,
		mapDefault: mapDefault,
		logger:     logger,
		metrics:    metrics,
		stage:      Idle{},
	}
	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	return c
}

// Stage returns the active stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Generation returns the current session generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Start moves Idle to PlacingPoint.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.stage.(Idle); !ok || c.closed {
		return c.reject("start")
	}
	c.enter(PlacingPoint{})
	return true
}

// SelectPoint replaces the point while placing and stores it best-effort.
// Points that are not valid coordinates are rejected.
func (c *Controller) SelectPoint(p domain.GeoPoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.stage.(PlacingPoint); !ok || !p.Valid() {
		return c.reject("select_point")
	}
	c.stage = PlacingPoint{Point: &p}
	c.persist(p)
	return true
}

// ChooseAsteroid enters ChoosingAsteroid once a point is set and starts the
// catalog load. In ChoosingAsteroid after a failed load it retries.
func (c *Controller) ChooseAsteroid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch st := c.stage.(type) {
	case PlacingPoint:
		if st.Point == nil {
			return c.reject("choose_asteroid")
		}
		c.enter(ChoosingAsteroid{Point: *st.Point, Loading: true})
	case ChoosingAsteroid:
		if st.Loading || st.Err == "" {
			return c.reject("choose_asteroid")
		}
		c.stage = ChoosingAsteroid{Point: st.Point, Loading: true}
	default:
		return c.reject("choose_asteroid")
	}

	c.wg.Add(1)
	go c.loadCatalog(c.genCtx, c.generation)
	return true
}

// SelectAsteroid records the chosen catalog member. Ids not in the loaded
// catalog are rejected.
func (c *Controller) SelectAsteroid(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stage.(ChoosingAsteroid)
	if !ok || st.Loading {
		return c.reject("select_asteroid")
	}
	if _, found := domain.FindAsteroid(st.Catalog, id); !found {
		return c.reject("select_asteroid")
	}
	st.SelectedID = id
	c.stage = st
	return true
}

// ComputeImpact enters ComputingImpact for the selected asteroid and starts
// the request. In ComputingImpact after a failure it retries; while a request
// is pending it is rejected.
func (c *Controller) ComputeImpact() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var next ComputingImpact
	switch st := c.stage.(type) {
	case ChoosingAsteroid:
		a, found := domain.FindAsteroid(st.Catalog, st.SelectedID)
		if st.Loading || st.SelectedID == "" || !found {
			return c.reject("compute_impact")
		}
		next = ComputingImpact{Point: st.Point, Catalog: st.Catalog, Asteroid: a, Pending: true}
		c.enter(next)
	case ComputingImpact:
		if st.Pending {
			return c.reject("compute_impact")
		}
		next = ComputingImpact{Point: st.Point, Catalog: st.Catalog, Asteroid: st.Asteroid, Pending: true}
		c.stage = next
	default:
		return c.reject("compute_impact")
	}

	c.wg.Add(1)
	go c.computeImpact(c.genCtx, c.generation, next.Asteroid)
	return true
}

// Back returns from ChoosingAsteroid to PlacingPoint, keeping the point and
// dropping the catalog and selection.
func (c *Controller) Back() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stage.(ChoosingAsteroid)
	if !ok {
		return c.reject("back")
	}
	c.bumpGeneration()
	p := st.Point
	c.enter(PlacingPoint{Point: &p})
	return true
}

// Reset returns to Idle from any stage and clears all session data. Any
// response still in flight is discarded when it arrives.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.reject("reset")
	}
	c.bumpGeneration()
	c.enter(Idle{})
	return true
}

// Close cancels in-flight work and waits for it to finish. Transitions after
// Close are rejected.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.bumpGeneration()
		c.stage = Idle{}
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Wait blocks until every background load, computation, and point write has
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// enter switches stage and logs the move. Callers hold mu.
func (c *Controller) enter(next Stage) {
	c.logger.Debug("stage transition",
		"from", c.stage.Name(),
		"stage", next.Name(),
		"generation", c.generation,
	)
	c.stage = next
}

// reject records a guard violation. Callers hold mu.
func (c *Controller) reject(transition string) bool {
	c.metrics.GuardRejections.WithLabelValues(transition).Inc()
	c.logger.Debug("transition rejected", "transition", transition, "stage", c.stage.Name())
	return false
}

// bumpGeneration starts a new generation and cancels the previous one's
// context. Callers hold mu.
func (c *Controller) bumpGeneration() {
	c.genCancel()
	c.generation++
	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	if c.closed {
		c.genCancel()
	}
}

func (c *Controller) loadCatalog(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	catalog, err := c.catalog.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stage.(ChoosingAsteroid)
	if gen != c.generation || !ok || !st.Loading {
		c.discard("catalog", gen)
		return
	}
	if err != nil {
		c.logger.Warn("catalog load failed", "error", err, "generation", gen)
		c.stage = ChoosingAsteroid{Point: st.Point, Err: err.Error()}
		return
	}
	c.stage = ChoosingAsteroid{Point: st.Point, Catalog: catalog}
}

func (c *Controller) computeImpact(ctx context.Context, gen uint64, a domain.MergedAsteroid) {
	defer c.wg.Done()

	result, err := c.impact.Compute(ctx, a)

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stage.(ComputingImpact)
	if gen != c.generation || !ok || !st.Pending {
		c.discard("impact", gen)
		return
	}
	if err != nil {
		c.logger.Warn("impact computation failed", "error", err, "asteroid_id", a.ID, "generation", gen)
		st.Pending = false
		st.Err = err.Error()
		c.stage = st
		return
	}
	c.enter(ShowingResult{Point: st.Point, Catalog: st.Catalog, Asteroid: st.Asteroid, Result: result})
}

// discard drops a response from a superseded generation. Callers hold mu.
func (c *Controller) discard(operation string, gen uint64) {
	c.metrics.StaleDiscards.WithLabelValues(operation).Inc()
	c.logger.Debug("stale response discarded",
		"operation", operation,
		"generation", gen,
		"current_generation", c.generation,
	)
}

// persist writes the point without waiting. Failures are counted and logged
// at debug level only. Callers hold mu.
func (c *Controller) persist(p domain.GeoPoint) {
	if c.points == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := c.points.SavePoint(ctx, p); err != nil {
			c.metrics.PersistFailures.Inc()
			c.logger.Debug("point persist failed", "error", err)
		}
	}()
}
