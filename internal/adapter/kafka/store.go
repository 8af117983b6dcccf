package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Record keys on the point topic. The topic is expected to be log-compacted so
// only the latest value per key is retained.
const (
	KeyLat = "lat"
	KeyLng = "lng"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PointStore publishes the last selected point to a Kafka topic as two scalar
// records. It implements domain.PointStore; LastPoint reports the last point
// this process wrote successfully.
type PointStore struct {
	writer messageWriter
	logger *slog.Logger

	mu   sync.RWMutex
	last *domain.GeoPoint
}

// NewPointStore creates a Kafka producer for the point topic.
func NewPointStore(brokers []string, topic string, logger *slog.Logger) *PointStore {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &PointStore{writer: w, logger: logger}
}

// SavePoint writes the point's latitude and longitude in a single batch.
func (s *PointStore) SavePoint(ctx context.Context, p domain.GeoPoint) error {
	if err := s.writer.WriteMessages(ctx, pointMessages(p)...); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	s.mu.Lock()
	s.last = &p
	s.mu.Unlock()
	s.logger.Debug("point stored", "lat", p.Lat, "lng", p.Lng)
	return nil
}

func (s *PointStore) LastPoint(_ context.Context) (domain.GeoPoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.GeoPoint{}, false, nil
	}
	return *s.last, true, nil
}

func (s *PointStore) Close() error {
	return s.writer.Close()
}

// pointMessages encodes a point as one record per coordinate.
func pointMessages(p domain.GeoPoint) []kafkago.Message {
	return []kafkago.Message{
		{Key: []byte(KeyLat), Value: []byte(strconv.FormatFloat(p.Lat, 'f', -1, 64))},
		{Key: []byte(KeyLng), Value: []byte(strconv.FormatFloat(p.Lng, 'f', -1, 64))},
	}
}
