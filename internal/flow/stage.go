package flow

import "github.com/couchcryptid/impact-sim/internal/domain"

// StageName identifies the active stage in snapshots and logs.
type StageName string

const (
	StageIdle             StageName = "idle"
	StagePlacingPoint     StageName = "placing_point"
	StageChoosingAsteroid StageName = "choosing_asteroid"
	StageComputingImpact  StageName = "computing_impact"
	StageShowingResult    StageName = "showing_result"
)

// Stage is the session's current phase together with the data valid in it.
// Exactly one stage is active; the set of implementations is closed.
type Stage interface {
	Name() StageName
	stage()
}

// Idle is the initial stage. It carries no data.
type Idle struct{}

// PlacingPoint waits for the user to click the map. Point is nil until the
// first click.
type PlacingPoint struct {
	Point *domain.GeoPoint
}

// ChoosingAsteroid holds the merged catalog once loaded. Loading is set while
// the fetch is in flight; Err is set when the last load failed.
type ChoosingAsteroid struct {
	Point      domain.GeoPoint
	Catalog    []domain.MergedAsteroid
	SelectedID string
	Loading    bool
	Err        string
}

// ComputingImpact tracks the impact request for the chosen asteroid. Pending
// and Err are never both set.
type ComputingImpact struct {
	Point    domain.GeoPoint
	Catalog  []domain.MergedAsteroid
	Asteroid domain.MergedAsteroid
	Pending  bool
	Err      string
}

// ShowingResult holds a successful impact result.
type ShowingResult struct {
	Point    domain.GeoPoint
	Catalog  []domain.MergedAsteroid
	Asteroid domain.MergedAsteroid
	Result   domain.ImpactResult
}

func (Idle) Name() StageName             { return StageIdle }
func (PlacingPoint) Name() StageName     { return StagePlacingPoint }
func (ChoosingAsteroid) Name() StageName { return StageChoosingAsteroid }
func (ComputingImpact) Name() StageName  { return StageComputingImpact }
func (ShowingResult) Name() StageName    { return StageShowingResult }

func (Idle) stage()             {}
func (PlacingPoint) stage()     {}
func (ChoosingAsteroid) stage() {}
func (ComputingImpact) stage()  {}
func (ShowingResult) stage()    {}
