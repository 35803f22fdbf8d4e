package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, "s3cret", cfg.Auth.RefreshSecret, "refresh secret falls back to the access secret")
	assert.False(t, cfg.Business.LegacyClearCartOnOrderList)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("LEGACY_CLEAR_CART_ON_ORDER_LIST", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
	assert.True(t, cfg.Business.LegacyClearCartOnOrderList)
	assert.Equal(t, 0, cfg.Redis.DB)
}
