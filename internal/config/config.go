package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roadwatch/backend/internal/domain"
)

// Store backends
const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMock      = "mock"
)

// Routing strategies
const (
	RoutingORS  = "ors"
	RoutingOSRM = "osrm"
	RoutingMock = "mock"
)

// Config is the server configuration read from the environment
type Config struct {
	Port string
	Env  string

	StoreBackend            string
	DatabaseURL             string
	FirebaseProjectID       string
	FirebaseCredentials     string
	FirebaseCredentialsFile string

	RedisURL        string
	SegmentCacheTTL time.Duration

	RoutingStrategy  string
	ORSAPIKey        string
	ORSBaseURL       string
	OSRMBaseURL      string
	NominatimBaseURL string
	ProviderTimeout  time.Duration
	FallbackToMock   bool

	Detection                domain.DetectionParams
	IntersectionRadiusMeters float64
	ClusterRadiusMeters      float64
	MockAverageSpeedKmh      float64
	RefreshSchedule          string
}

// Load reads the configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("GO_ENV", "development"),

		DatabaseURL:             getEnv("DATABASE_URL", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials:     getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		RedisURL:        getEnv("REDIS_URL", ""),
		SegmentCacheTTL: getEnvDuration("SEGMENT_CACHE_TTL", 5*time.Minute),

		ORSAPIKey:        getEnv("ORS_API_KEY", ""),
		ORSBaseURL:       getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		OSRMBaseURL:      getEnv("OSRM_BASE_URL", "http://router.project-osrm.org"),
		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		ProviderTimeout:  getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		FallbackToMock:   getEnvBool("ROUTING_FALLBACK_TO_MOCK", false),

		Detection: domain.DetectionParams{
			DistanceThresholdMeters: getEnvFloat("SEGMENT_DISTANCE_THRESHOLD_M", domain.DefaultDistanceThresholdMeters),
			MinPotholes:             getEnvInt("SEGMENT_MIN_POTHOLES", domain.DefaultMinPotholes),
		},
		IntersectionRadiusMeters: getEnvFloat("ROUTE_INTERSECTION_RADIUS_M", 50),
		ClusterRadiusMeters:      getEnvFloat("ADMIN_CLUSTER_RADIUS_M", domain.DefaultClusterRadiusMeters),
		MockAverageSpeedKmh:      getEnvFloat("MOCK_AVERAGE_SPEED_KMH", 50),
		RefreshSchedule:          getEnv("SEGMENT_REFRESH_SCHEDULE", "@every 15m"),
	}

	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", defaultStore(cfg)))
	cfg.RoutingStrategy = strings.ToLower(getEnv("ROUTING_STRATEGY", defaultRouting(cfg)))
	return cfg
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultStore(cfg *Config) string {
	switch {
	case cfg.DatabaseURL != "":
		return StorePostgres
	case cfg.FirebaseProjectID != "" || cfg.FirebaseCredentials != "" || cfg.FirebaseCredentialsFile != "":
		return StoreFirestore
	default:
		return StoreMock
	}
}

// defaultRouting picks OpenRouteService when a key is present, else the mock
func defaultRouting(cfg *Config) string {
	if cfg.ORSAPIKey != "" {
		return RoutingORS
	}
	return RoutingMock
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
