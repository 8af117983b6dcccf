package domain

import "fmt"

// OverlayKind distinguishes the two rings drawn per composition.
type OverlayKind string

const (
	ShockwaveRing OverlayKind = "shockwave"
	CraterRing    OverlayKind = "crater"
)

// ShockwaveFillOpacity is the fill opacity of every shockwave ring.
const ShockwaveFillOpacity = 0.15

// Style describes how a ring is painted.
type Style struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fill_color,omitempty"`
	FillOpacity float64 `json:"fill_opacity"`
	Filled      bool    `json:"filled"`
	Dashed      bool    `json:"dashed"`
	DashArray   string  `json:"dash_array,omitempty"`
	Weight      int     `json:"weight"`
}

// Overlay is a drawable ring centred on the impact point. RadiusMeters is in
// metres.
type Overlay struct {
	ID           string      `json:"id"`
	Composition  Composition `json:"composition"`
	Kind         OverlayKind `json:"kind"`
	Center       GeoPoint    `json:"center"`
	RadiusMeters float64     `json:"radius_m"`
	Style        Style       `json:"style"`
}

// LegendEntry is one row of the static composition legend.
type LegendEntry struct {
	Code         Composition `json:"code"`
	Name         string      `json:"name"`
	FillColor    string      `json:"fill_color"`
	OutlineColor string      `json:"outline_color"`
}

type palette struct {
	name    string
	fill    string // shockwave fill
	outline string // crater outline
}

var palettes = map[Composition]palette{
	Carbonaceous: {name: "Carbonaceous", fill: "#8b5a2b", outline: "#f4a261"},
	Stony:        {name: "Stony", fill: "#c0392b", outline: "#2e86de"},
	Metallic:     {name: "Metallic", fill: "#7f8c8d", outline: "#8e44ad"},
}

// unknownPalette paints codes the legend does not list.
var unknownPalette = palette{name: "Unknown", fill: "#555555", outline: "#222222"}

func paletteFor(c Composition) palette {
	if p, ok := palettes[c]; ok {
		return p
	}
	p := unknownPalette
	p.name = string(c)
	return p
}

// ToOverlays converts an impact result into rings centred on center.
//
// Compositions are visited in [ImpactResult.Compositions] order. Each yields a
// filled shockwave ring and then a dashed crater ring; a ring is omitted when
// its radius is absent, zero, negative or NaN. Only compositions present in
// the result produce overlays.
func ToOverlays(center GeoPoint, result ImpactResult) []Overlay {
	overlays := make([]Overlay, 0, 2*len(result))
	for _, code := range result.Compositions() {
		effects := result[code]
		p := paletteFor(code)

		if r, ok := positiveKm(effects.ShockwaveRadiusKm); ok {
			overlays = append(overlays, Overlay{
				ID:           fmt.Sprintf("%s-%s", code, ShockwaveRing),
				Composition:  code,
				Kind:         ShockwaveRing,
				Center:       center,
				RadiusMeters: r * 1000,
				Style: Style{
					Color:       p.fill,
					FillColor:   p.fill,
					FillOpacity: ShockwaveFillOpacity,
					Filled:      true,
					Weight:      1,
				},
			})
		}

		if r, ok := positiveKm(effects.CraterRadiusKm); ok {
			overlays = append(overlays, Overlay{
				ID:           fmt.Sprintf("%s-%s", code, CraterRing),
				Composition:  code,
				Kind:         CraterRing,
				Center:       center,
				RadiusMeters: r * 1000,
				Style: Style{
					Color:     p.outline,
					Filled:    false,
					Dashed:    true,
					DashArray: "6 4",
					Weight:    2,
				},
			})
		}
	}
	return overlays
}

func positiveKm(v *float64) (float64, bool) {
	if v == nil || !(*v > 0) {
		return 0, false
	}
	return *v, true
}

// Legend returns the fixed composition key. It lists every known composition
// whether or not a given result contains it.
func Legend() []LegendEntry {
	legend := make([]LegendEntry, 0, len(KnownCompositions))
	for _, c := range KnownCompositions {
		p := palettes[c]
		legend = append(legend, LegendEntry{
			Code:         c,
			Name:         p.name,
			FillColor:    p.fill,
			OutlineColor: p.outline,
		})
	}
	return legend
}
