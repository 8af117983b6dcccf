package domain

// MergeCatalog overlays detail records onto catalog entries by id.
//
// The result has exactly one element per catalog entry, in catalog order.
// Details with no matching entry are dropped. When the details contain the
// same id more than once, the last record wins. The function is pure: equal
// inputs always produce equal output.
func MergeCatalog(entries []CatalogEntry, details []DetailRecord) []MergedAsteroid {
	byID := make(map[string]DetailRecord, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	merged := make([]MergedAsteroid, 0, len(entries))
	for _, e := range entries {
		a := MergedAsteroid{
			ID:          e.ID,
			Name:        e.Name,
			Date:        Unavailable[string](),
			DiameterKm:  Unavailable[float64](),
			VelocityKms: Unavailable[float64](),
		}
		if d, ok := byID[e.ID]; ok {
			a.Date = FieldFrom(d.Date)
			a.DiameterKm = FieldFrom(d.DiameterKm)
			a.VelocityKms = FieldFrom(d.VelocityKms)
		}
		merged = append(merged, a)
	}
	return merged
}
