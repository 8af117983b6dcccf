// Package domain models the asteroid impact simulation: the map point a user
// selects, the asteroid catalog it chooses from, the physics request sent to
// the impact service and the overlays derived from its answer.
//
// # Asteroid catalog
//
// The visible catalog is assembled from two independent sources that share an
// id space:
//
//	catalog  →  ordered {id, name} listing; defines membership and order
//	details  →  {id, date?, diameter_km?, velocity_kms?} enrichment records
//
// [MergeCatalog] overlays details onto catalog entries. Details never add,
// remove or reorder entries; a detail whose id is not listed is dropped.
// Fields missing from both sources are carried as an unavailable [Field]
// rather than a zero value, so "unknown" and "zero" stay distinguishable.
//
// # Impact request
//
// The impact service takes a diameter (km), a velocity (km/s) and an entry
// angle (degrees from horizontal). Missing measurements fall back to fixed
// defaults so an incomplete record never blocks a run:
//
//	diameter  1 km
//	velocity  20 km/s
//	angle     45° (fixed, never taken from the user)
//
// # Compositions
//
// Results are keyed by bulk composition class. The known classes are:
//
//	C  Carbonaceous  porous, friable (≈1500 kg/m³)
//	S  Stony         silicates (≈3000 kg/m³)
//	M  Metallic      nickel-iron (≈6000 kg/m³)
//
// # Units
//
// Physics values are kilometres; map overlays are metres. [ToOverlays]
// converts ring radii with a factor of 1000.
package domain
