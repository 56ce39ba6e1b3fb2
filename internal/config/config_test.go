package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("STORAGE_DRIVER", " Memory ")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("MAX_CONFLICT_RETRIES", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTLRemember)
	assert.Equal(t, uint(7), cfg.MaxConflictRetries)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, int32(8), cfg.PostgresMaxConns)
}

func TestLoad_RejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTPAddr: ":8081", StorageDriver: DriverPostgres, PostgresDSN: "postgres://x",
		JWTSecret: secret, AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour, RefreshTokenTTLRemember: time.Hour,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.StorageDriver = "mysql" }, "STORAGE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.PostgresDSN = "" }, "POSTGRES_DSN"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"zero ttl", func(c *Config) { c.RefreshTokenTTL = 0 }, "TTL"},
		{"no addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP_ADDR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	mem := valid
	mem.StorageDriver, mem.PostgresDSN = DriverMemory, ""
	assert.NoError(t, mem.Validate())
}
