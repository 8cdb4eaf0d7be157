package config

import (
	"time"
)

// EngineConfig holds the tunables for the deal cache, route planner, and
// journey tracker.
type EngineConfig struct {
	DealCacheExpiration  time.Duration `yaml:"deal_cache_expiration"`
	JourneyTTL           time.Duration `yaml:"journey_ttl"`
	JourneyHistoryLimit  int           `yaml:"journey_history_limit"`
	DefaultMaxVendors    int           `yaml:"default_max_vendors"`
	MaxVendorsLimit      int           `yaml:"max_vendors_limit"`
	AverageSpeedMph      float64       `yaml:"average_speed_mph"`
	LegTrafficBuffer     float64       `yaml:"leg_traffic_buffer"`
	LocationFetchTimeout time.Duration `yaml:"location_fetch_timeout"`
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		DealCacheExpiration:  getEnvAsDuration("DEAL_CACHE_EXPIRATION", 24*time.Hour),
		JourneyTTL:           getEnvAsDuration("JOURNEY_TTL", 24*time.Hour),
		JourneyHistoryLimit:  getEnvAsInt("JOURNEY_HISTORY_LIMIT", 20),
		DefaultMaxVendors:    getEnvAsInt("DEFAULT_MAX_VENDORS", 5),
		MaxVendorsLimit:      getEnvAsInt("MAX_VENDORS_LIMIT", 10),
		AverageSpeedMph:      getEnvAsFloat64("AVERAGE_SPEED_MPH", 25.0),
		LegTrafficBuffer:     getEnvAsFloat64("LEG_TRAFFIC_BUFFER", 0.2),
		LocationFetchTimeout: getEnvAsDuration("LOCATION_FETCH_TIMEOUT", 10*time.Second),
	}
}
