package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/impact-sim/internal/domain"
)

// Keys under which the last point is stored.
const (
	keyLat = "lat"
	keyLng = "lng"
)

// PointStore keeps the last selected point in process memory as two scalar
// fields. It implements domain.PointStore.
type PointStore struct {
	mu     sync.RWMutex
	fields map[string]float64
}

// NewPointStore creates an empty store.
func NewPointStore() *PointStore {
	return &PointStore{fields: make(map[string]float64, 2)}
}

func (s *PointStore) SavePoint(_ context.Context, p domain.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[keyLat] = p.Lat
	s.fields[keyLng] = p.Lng
	return nil
}

func (s *PointStore) LastPoint(_ context.Context) (domain.GeoPoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lat, okLat := s.fields[keyLat]
	lng, okLng := s.fields[keyLng]
	if !okLat || !okLng {
		return domain.GeoPoint{}, false, nil
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, true, nil
}
