package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.API.Port)
	assert.Equal(t, "/api/v1", cfg.API.BasePath)
	assert.Equal(t, 15, cfg.Monitor.FetchTimeoutSeconds)
	assert.Equal(t, 5, cfg.Monitor.CycleIntervalMinutes)
	assert.Equal(t, "https://ransomwatch.telemetry.ltd", cfg.Sources.RansomwatchURL)
	assert.Equal(t, 5, cfg.Delivery.RatePerSecond)
	assert.Equal(t, 10, cfg.Delivery.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", ":9090")
	t.Setenv("CYCLE_INTERVAL_MINUTES", "15")
	t.Setenv("RANSOMWATCH_URL", "http://localhost:8000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.API.Port)
	assert.Equal(t, 15, cfg.Monitor.CycleIntervalMinutes)
	assert.Equal(t, "http://localhost:8000", cfg.Sources.RansomwatchURL)
}

func TestLoadKafkaRequiresTopicAndGroup(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "localhost:9092")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")
	assert.Contains(t, err.Error(), "KAFKA_GROUP_ID")

	t.Setenv("KAFKA_TOPIC", "threat-events")
	t.Setenv("KAFKA_GROUP_ID", "threat-monitor")
	_, err = Load()
	assert.NoError(t, err)
}
