package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 0, cfg.Sweeper.CleanupHour)
	assert.Equal(t, "attendance.events", cfg.Kafka.Topic)
	assert.True(t, cfg.InMemory())
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 60, cfg.RateLimit.KioskRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.KioskWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GYMDESK_ADDR", ":9090")
	t.Setenv("GYMDESK_TIMEZONE", "America/New_York")
	t.Setenv("GYMDESK_POSTGRES_URL", "postgres://localhost/gymdesk")
	t.Setenv("GYMDESK_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GYMDESK_SWEEPER_INTERVAL", "1m")
	t.Setenv("GYMDESK_SWEEPER_CLEANUP_HOUR", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.False(t, cfg.InMemory())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 3, cfg.Sweeper.CleanupHour)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown timezone", key: "GYMDESK_TIMEZONE", value: "Mars/Olympus"},
		{name: "cleanup hour out of range", key: "GYMDESK_SWEEPER_CLEANUP_HOUR", value: "24"},
		{name: "pass expiry hour out of range", key: "GYMDESK_SWEEPER_PASS_EXPIRY_HOUR", value: "-1"},
		{name: "zero interval", key: "GYMDESK_SWEEPER_INTERVAL", value: "0s"},
		{name: "zero kiosk budget", key: "GYMDESK_RATELIMIT_KIOSK_REQUESTS", value: "0"},
		{name: "malformed duration", key: "GYMDESK_SWEEPER_INTERVAL", value: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
