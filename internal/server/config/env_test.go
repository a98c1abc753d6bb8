package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://app:app@db:5432/users")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DEBUG", "true")
	t.Setenv("TWILIO_ACCOUNT_SID", "ACxxx")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, c.Port, 8080)
	assert.Equal(t, c.DatabaseDSN, "postgres://app:app@db:5432/users")
	assert.Equal(t, c.RedisURL, "redis://cache:6379/1")
	assert.Equal(t, c.CacheTTL, 60*time.Second)
	assert.Equal(t, c.JWTSecret, "prod-secret")
	assert.True(t, c.Debug)
	assert.Equal(t, c.TwilioAccountSID, "ACxxx")
}

func TestParseEnv_UnsetVariablesKeepDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "only-this-one")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, c.JWTSecret, "only-this-one")
	assert.Equal(t, c.Port, 5000)
	assert.Equal(t, c.CacheTTL, 300*time.Second)
	assert.Equal(t, c.RedisURL, "redis://localhost:6379")
}
