package main

import "github.com/couchcryptid/impact-sim/internal/domain"

var catalogFixture = []domain.CatalogEntry{
	{ID: "2099942", Name: "99942 Apophis (2004 MN4)"},
	{ID: "2101955", Name: "101955 Bennu (1999 RQ36)"},
	{ID: "2065803", Name: "65803 Didymos (1996 GT)"},
	{ID: "3542519", Name: "(2010 PK9)"},
}

func ptr[T any](v T) *T { return &v }

// detailsFixture leaves (2010 PK9) without a record and Didymos without a
// velocity so clients exercise their defaults.
func detailsFixture() []domain.DetailRecord {
	return []domain.DetailRecord{
		{ID: "2099942", Date: ptr("2029-04-13"), DiameterKm: ptr(0.37), VelocityKms: ptr(7.42)},
		{ID: "2101955", Date: ptr("2182-09-24"), DiameterKm: ptr(0.49), VelocityKms: ptr(12.7)},
		{ID: "2065803", Date: ptr("2123-11-04"), DiameterKm: ptr(0.78)},
		{ID: "9999999", Date: ptr("2030-01-01"), DiameterKm: ptr(0.1), VelocityKms: ptr(15.0)},
	}
}

// impactFixture is the response for a 1 km body at 20 km/s and 45 degrees.
func impactFixture() domain.ImpactResult {
	return domain.ImpactResult{
		domain.Carbonaceous: {
			ShockwaveRadiusKm: ptr(214.3),
			CraterRadiusKm:    ptr(5.86),
			EnergyMegatons:    ptr(37542.93),
			DensityKgM3:       ptr(1500.0),
			Comparison: &domain.Comparison{
				Summary:      "≈ 187.7× the energy of Krakatoa (1883) (200 Mt TNT)",
				ClosestEvent: "Krakatoa (1883)",
				Ratio:        ptr(187.71),
				Severity:     "global",
				Category:     "continental",
			},
		},
		domain.Stony: {
			ShockwaveRadiusKm: ptr(270.0),
			CraterRadiusKm:    ptr(7.61),
			EnergyMegatons:    ptr(75085.87),
			DensityKgM3:       ptr(3000.0),
			Comparison: &domain.Comparison{
				Summary:      "≈ 375.4× the energy of Krakatoa (1883) (200 Mt TNT)",
				ClosestEvent: "Krakatoa (1883)",
				Ratio:        ptr(375.43),
				Severity:     "global",
				Category:     "continental",
			},
		},
		domain.Metallic: {
			ShockwaveRadiusKm: ptr(340.18),
			CraterRadiusKm:    ptr(9.88),
			EnergyMegatons:    ptr(150171.73),
			DensityKgM3:       ptr(6000.0),
			Comparison: &domain.Comparison{
				Summary:      "≈ 750.9× the energy of Krakatoa (1883) (200 Mt TNT)",
				ClosestEvent: "Krakatoa (1883)",
				Ratio:        ptr(750.86),
				Severity:     "global",
				Category:     "continental",
			},
		},
	}
}
