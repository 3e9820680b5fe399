package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefrontDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	var cfg Storefront
	require.NoError(t, Parse(&cfg))

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaAddr)
	assert.False(t, cfg.CartEnforceStock)
}

func TestStorefrontRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	var cfg Storefront
	err := Parse(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestNotifierOverrides(t *testing.T) {
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")
	t.Setenv("IDEMPOTENCY_TTL", "10m")

	var cfg Notifier
	require.NoError(t, Parse(&cfg))

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaAddr)
	assert.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, "@midnight", cfg.ReminderSchedule)
}
