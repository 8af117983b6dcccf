package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Catalog source selectors for CATALOG_SOURCE.
const (
	CatalogSourceBackend = "backend"
	CatalogSourceNeoWs   = "neows"
)

// Point store selectors for POINT_STORE.
const (
	PointStoreMemory = "memory"
	PointStoreKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Impact backend serving /api/catalog, /api/details and /api/impact.
	ImpactAPIURL     string
	ImpactAPITimeout time.Duration

	// Catalog and detail source configuration.
	CatalogSource  string
	NASAAPIKey     string
	NeoWsStartDate string
	NeoWsEndDate   string
	NeoWsCacheTTL  time.Duration
	NeoWsCacheSize int

	SessionIdleTimeout time.Duration

	// Last-point persistence.
	PointStore      string
	KafkaBrokers    []string
	KafkaPointTopic string

	// Map view shown before a point is selected.
	MapDefaultLat  float64
	MapDefaultLng  float64
	MapDefaultZoom int
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("IMPACT_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("NEOWS_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	idleTimeout, err := parsePositiveDuration("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("MAP_DEFAULT_LAT", "28.5721")
	if err != nil {
		return nil, err
	}
	lng, err := parseFloat("MAP_DEFAULT_LNG", "-80.6480")
	if err != nil {
		return nil, err
	}
	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_DEFAULT_ZOOM", "10"))
	if err != nil || zoom < 0 || zoom > 22 {
		return nil, errors.New("invalid MAP_DEFAULT_ZOOM")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ImpactAPIURL:     sharedcfg.EnvOrDefault("IMPACT_API_URL", "http://localhost:5000"),
		ImpactAPITimeout: apiTimeout,

		CatalogSource:  sharedcfg.EnvOrDefault("CATALOG_SOURCE", CatalogSourceBackend),
		NASAAPIKey:     sharedcfg.EnvOrDefault("NASA_API_KEY", "DEMO_KEY"),
		NeoWsStartDate: sharedcfg.EnvOrDefault("NEOWS_START_DATE", "2025-10-04"),
		NeoWsEndDate:   sharedcfg.EnvOrDefault("NEOWS_END_DATE", "2025-10-05"),
		NeoWsCacheTTL:  cacheTTL,
		NeoWsCacheSize: parseNeoWsCacheSize(),

		SessionIdleTimeout: idleTimeout,

		PointStore:      sharedcfg.EnvOrDefault("POINT_STORE", PointStoreMemory),
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPointTopic: sharedcfg.EnvOrDefault("KAFKA_POINT_TOPIC", "impact-sim-last-point"),

		MapDefaultLat:  lat,
		MapDefaultLng:  lng,
		MapDefaultZoom: zoom,
	}

	switch cfg.CatalogSource {
	case CatalogSourceBackend, CatalogSourceNeoWs:
	default:
		return nil, fmt.Errorf("invalid CATALOG_SOURCE %q", cfg.CatalogSource)
	}
	switch cfg.PointStore {
	case PointStoreMemory:
	case PointStoreKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when POINT_STORE is kafka")
		}
		if cfg.KafkaPointTopic == "" {
			return nil, errors.New("KAFKA_POINT_TOPIC is required when POINT_STORE is kafka")
		}
	default:
		return nil, fmt.Errorf("invalid POINT_STORE %q", cfg.PointStore)
	}
	if cfg.ImpactAPIURL == "" {
		return nil, errors.New("IMPACT_API_URL is required")
	}
	if cfg.MapDefaultLat < -90 || cfg.MapDefaultLat > 90 {
		return nil, errors.New("invalid MAP_DEFAULT_LAT")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseNeoWsCacheSize() int {
	if s := os.Getenv("NEOWS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 64
}
