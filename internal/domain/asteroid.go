package domain

import (
	"bytes"
	"encoding/json"
)

// CatalogEntry is the minimal identity record from the primary listing.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DetailRecord is an enrichment record from the secondary source. Every
// measurement is optional.
type DetailRecord struct {
	ID          string   `json:"id"`
	Date        *string  `json:"date,omitempty"`
	DiameterKm  *float64 `json:"diameter_km,omitempty"`
	VelocityKms *float64 `json:"velocity_kms,omitempty"`
}

// MergedAsteroid is a catalog entry with its detail fields overlaid.
// ID always comes from the catalog.
type MergedAsteroid struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Date        Field[string]  `json:"date"`
	DiameterKm  Field[float64] `json:"diameter_km"`
	VelocityKms Field[float64] `json:"velocity_kms"`
}

// Field holds a value that may be unavailable. An unavailable field encodes
// as JSON null so the key is always present.
type Field[T any] struct {
	Value T
	Valid bool
}

// Available wraps a known value.
func Available[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true}
}

// Unavailable returns the explicit "no data" marker.
func Unavailable[T any]() Field[T] {
	return Field[T]{}
}

// FieldFrom converts an optional wire value into a Field.
func FieldFrom[T any](p *T) Field[T] {
	if p == nil {
		return Unavailable[T]()
	}
	return Available(*p)
}

// Get returns the value and whether it is available.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Valid
}

// Or returns the value, or def when the field is unavailable.
func (f Field[T]) Or(def T) T {
	if !f.Valid {
		return def
	}
	return f.Value
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Unavailable[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Available(v)
	return nil
}

// FindAsteroid returns the catalog member with the given id.
func FindAsteroid(catalog []MergedAsteroid, id string) (MergedAsteroid, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return MergedAsteroid{}, false
}
