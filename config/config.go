// Package config provides configuration management for the response service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Sequence SequenceConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string
	SwaggerUser string
	SwaggerPass string
}

// CacheConfig holds aggregation cache configuration.
type CacheConfig struct {
	// Capacity is the maximum number of entries the store holds before LRU eviction.
	Capacity int
	// StatsTTL is how long dashboard statistics stay fresh.
	StatsTTL time.Duration
	// SummaryTTL is how long forms summaries stay fresh.
	SummaryTTL time.Duration
	// ComputeTimeout bounds a single compute call on a cache miss.
	ComputeTimeout time.Duration
}

// SequenceConfig holds progressive-number allocator configuration.
type SequenceConfig struct {
	// MaxRetries is the retry budget for the atomic counter step.
	MaxRetries int
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
}

// Load creates a Config from environment variables.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			RateLimit:   getEnvInt("RATE_LIMIT", 100),
			RateWindow:  getEnvDuration("RATE_WINDOW", time.Minute),
			CORSOrigins: parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
			SwaggerUser: getEnv("SWAGGER_USER", ""),
			SwaggerPass: getEnv("SWAGGER_PASS", ""),
		},
		Cache: CacheConfig{
			Capacity:       getEnvInt("CACHE_SIZE", 1000),
			StatsTTL:       getEnvDuration("CACHE_STATS_TTL", 15*time.Minute),
			SummaryTTL:     getEnvDuration("CACHE_SUMMARY_TTL", 5*time.Minute),
			ComputeTimeout: getEnvDuration("CACHE_COMPUTE_TIMEOUT", 15*time.Second),
		},
		Sequence: SequenceConfig{
			MaxRetries: getEnvInt("SEQUENCE_MAX_RETRIES", 3),
		},
		Database: DatabaseConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DatabaseName: getEnv("MONGODB_DATABASE", "protomforms"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCORSOrigins(s string) []string {
	// Default origins for local development
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if s == "" {
		return defaults
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts)+len(defaults))
	result = append(result, defaults...)
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
