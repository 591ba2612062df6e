package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, time.Minute, cfg.Server.RateWindow)

	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, 15*time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SummaryTTL)
	assert.Equal(t, 15*time.Second, cfg.Cache.ComputeTimeout)

	assert.Equal(t, 3, cfg.Sequence.MaxRetries)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "protomforms", cfg.Database.DatabaseName)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_SIZE", "50")
	t.Setenv("CACHE_STATS_TTL", "1m")
	t.Setenv("CACHE_COMPUTE_TIMEOUT", "5s")
	t.Setenv("SEQUENCE_MAX_RETRIES", "7")
	t.Setenv("MONGODB_DATABASE", "protomforms_test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Cache.Capacity)
	assert.Equal(t, time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, 5*time.Second, cfg.Cache.ComputeTimeout)
	assert.Equal(t, 7, cfg.Sequence.MaxRetries)
	assert.Equal(t, "protomforms_test", cfg.Database.DatabaseName)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_SIZE", "not-a-number")
	t.Setenv("CACHE_STATS_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, 15*time.Minute, cfg.Cache.StatsTTL)
}

func TestParseCORSOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:  "empty keeps defaults",
			input: "",
			expected: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
		},
		{
			name:  "extra origins appended",
			input: "https://forms.example.com, https://admin.example.com",
			expected: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"https://forms.example.com",
				"https://admin.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCORSOrigins(tt.input))
		})
	}
}
