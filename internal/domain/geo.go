package domain

import "math"

// GeoPoint is a WGS-84 coordinate picked on the map.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is a finite coordinate with latitude in
// [-90, 90]. Longitude is not bounded because map widgets report wrapped
// longitudes past ±180.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90
}

// MapView tells the map widget where to look and whether clicks place a point.
type MapView struct {
	Center        GeoPoint `json:"center"`
	Zoom          int      `json:"zoom"`
	ClicksEnabled bool     `json:"clicks_enabled"`
}
