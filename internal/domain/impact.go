package domain

import (
	"slices"
)

// Request defaults applied when the selected asteroid lacks a measurement.
const (
	DefaultDiameterKm  = 1.0
	DefaultVelocityKms = 20.0
	ImpactAngleDeg     = 45.0
)

// Composition is an asteroid bulk material class code.
type Composition string

const (
	Carbonaceous Composition = "C"
	Stony        Composition = "S"
	Metallic     Composition = "M"
)

// KnownCompositions lists every composition class in legend order.
var KnownCompositions = []Composition{Carbonaceous, Stony, Metallic}

// ImpactRequest is the body sent to the impact service.
type ImpactRequest struct {
	DiameterKm  float64 `json:"diameter_km"`
	VelocityKms float64 `json:"velocity_kms"`
	Angle       float64 `json:"angle"`
}

// NewImpactRequest builds the physics request for an asteroid, substituting
// defaults for missing measurements.
func NewImpactRequest(a MergedAsteroid) ImpactRequest {
	return ImpactRequest{
		DiameterKm:  a.DiameterKm.Or(DefaultDiameterKm),
		VelocityKms: a.VelocityKms.Or(DefaultVelocityKms),
		Angle:       ImpactAngleDeg,
	}
}

// Comparison relates the impact energy to a historical event.
type Comparison struct {
	Summary      string   `json:"summary"`
	ClosestEvent string   `json:"closest_event,omitempty"`
	Ratio        *float64 `json:"ratio,omitempty"`
	Severity     string   `json:"severity,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// ImpactEffects is the computed outcome for one composition. Any field may be
// absent; an absent radius means the ring is not drawn.
type ImpactEffects struct {
	ShockwaveRadiusKm *float64    `json:"shockwave_radius_km,omitempty"`
	CraterRadiusKm    *float64    `json:"crater_radius_km,omitempty"`
	EnergyMegatons    *float64    `json:"energy_megatons,omitempty"`
	DensityKgM3       *float64    `json:"density_kg_m3,omitempty"`
	Comparison        *Comparison `json:"comparison,omitempty"`
}

// ImpactResult maps each computed composition to its effects.
type ImpactResult map[Composition]ImpactEffects

// Compositions returns the result's keys in a stable order: known classes in
// legend order, then any other codes sorted lexically.
func (r ImpactResult) Compositions() []Composition {
	codes := make([]Composition, 0, len(r))
	for _, c := range KnownCompositions {
		if _, ok := r[c]; ok {
			codes = append(codes, c)
		}
	}
	var unknown []Composition
	for c := range r {
		if !slices.Contains(KnownCompositions, c) {
			unknown = append(unknown, c)
		}
	}
	slices.Sort(unknown)
	return append(codes, unknown...)
}
