package flow

import (
	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/impact"
)

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	Stage       StageName               `json:"stage"`
	Generation  uint64                  `json:"generation"`
	Point       *domain.GeoPoint        `json:"point"`
	Catalog     []domain.MergedAsteroid `json:"catalog,omitempty"`
	SelectedID  string                  `json:"selected_id,omitempty"`
	Asteroid    *domain.MergedAsteroid  `json:"asteroid,omitempty"`
	Result      domain.ImpactResult     `json:"result,omitempty"`
	Overlays    []domain.Overlay        `json:"overlays,omitempty"`
	Legend      []domain.LegendEntry    `json:"legend,omitempty"`
	Pending     bool                    `json:"pending"`
	Impact      impact.Status           `json:"impact_status"`
	Error       string                  `json:"error,omitempty"`
	CanContinue bool                    `json:"can_continue"`
	Map         domain.MapView          `json:"map"`
}

// Snapshot captures the current stage. CanContinue reports whether the
// forward transition out of the stage would currently be accepted.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	st, gen, closed := c.stage, c.generation, c.closed
	c.mu.Unlock()

	s := Snapshot{Stage: st.Name(), Generation: gen, Map: c.mapDefault, Impact: impact.StatusIdle}
	switch st := st.(type) {
	case Idle:
		s.CanContinue = !closed
	case PlacingPoint:
		s.Point = st.Point
		s.CanContinue = st.Point != nil
		s.Map.ClicksEnabled = true
	case ChoosingAsteroid:
		s.Point = &st.Point
		s.Catalog = st.Catalog
		s.SelectedID = st.SelectedID
		s.Pending = st.Loading
		s.Error = st.Err
		_, found := domain.FindAsteroid(st.Catalog, st.SelectedID)
		s.CanContinue = !st.Loading && found
	case ComputingImpact:
		s.Point = &st.Point
		s.Catalog = st.Catalog
		s.SelectedID = st.Asteroid.ID
		s.Asteroid = &st.Asteroid
		s.Pending = st.Pending
		s.Error = st.Err
		s.CanContinue = !st.Pending && st.Err != ""
		s.Impact = impact.StatusPending
		if st.Err != "" {
			s.Impact = impact.StatusFailed
		}
	case ShowingResult:
		s.Point = &st.Point
		s.Catalog = st.Catalog
		s.SelectedID = st.Asteroid.ID
		s.Asteroid = &st.Asteroid
		s.Result = st.Result
		s.Impact = impact.StatusSucceeded
		s.Overlays = domain.ToOverlays(st.Point, st.Result)
		s.Legend = domain.Legend()
	}
	if s.Point != nil {
		s.Map.Center = *s.Point
	}
	return s
}
