package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is an intermediate DTO for the environment overlay. Pointer
// fields stay nil when the variable is unset so defaults survive, and
// CACHE_TTL is accepted as plain seconds the way deployments already set it.
type envConfig struct {
	Port                   *int    `env:"PORT"`
	SecretKey              *string `env:"SECRET_KEY"`
	Debug                  *bool   `env:"DEBUG"`
	DatabaseDSN            *string `env:"DATABASE_URL"`
	RedisURL               *string `env:"REDIS_URL"`
	CacheTTLSeconds        *int    `env:"CACHE_TTL"`
	JWTSecret              *string `env:"JWT_SECRET"`
	TwilioAccountSID       *string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        *string `env:"TWILIO_AUTH_TOKEN"`
	TwilioVerifyServiceSID *string `env:"TWILIO_VERIFY_SERVICE_SID"`
}

// parseEnv overlays recognized environment variables onto the Config.
// Unset variables leave the existing values untouched. Malformed values
// panic: a misconfigured environment should stop startup, not be guessed at.
func parseEnv(config *Config) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	if e.Port != nil {
		config.Port = *e.Port
	}
	if e.SecretKey != nil {
		config.SecretKey = *e.SecretKey
	}
	if e.Debug != nil {
		config.Debug = *e.Debug
	}
	if e.DatabaseDSN != nil {
		config.DatabaseDSN = *e.DatabaseDSN
	}
	if e.RedisURL != nil {
		config.RedisURL = *e.RedisURL
	}
	if e.CacheTTLSeconds != nil {
		config.CacheTTL = time.Duration(*e.CacheTTLSeconds) * time.Second
	}
	if e.JWTSecret != nil {
		config.JWTSecret = *e.JWTSecret
	}
	if e.TwilioAccountSID != nil {
		config.TwilioAccountSID = *e.TwilioAccountSID
	}
	if e.TwilioAuthToken != nil {
		config.TwilioAuthToken = *e.TwilioAuthToken
	}
	if e.TwilioVerifyServiceSID != nil {
		config.TwilioVerifyServiceSID = *e.TwilioVerifyServiceSID
	}
}
