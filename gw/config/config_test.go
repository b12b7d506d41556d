package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv() {
	keys := []string{
		"APP_ENV", "PORT",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_CALLBACK_URL",
		"JWT_SECRET", "JWT_EXPIRATION",
		"SESSION_SECRET", "SESSION_TTL",
		"FRONTEND_URL_DEV", "FRONTEND_URL_PROD",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	}
	for _, key := range keys {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()
	config, err := Load()
	assert.Nil(t, err)
	assert.Equal(t, EnvDevelopment, config.Environment)
	assert.Equal(t, "3000", config.Port)
	assert.Equal(t, "http://localhost:3000/auth/google/callback", config.Google.CallbackURL)
	assert.Equal(t, 24*time.Hour, config.JWTExpiration)
	assert.Equal(t, 24*time.Hour, config.SessionTTL)
	assert.Equal(t, "http://localhost:5173", config.FrontendURLDev)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)

	//development falls back to insecure secrets
	assert.Equal(t, devJWTSecret, config.JWTSecret)
	assert.Equal(t, devSessionSecret, config.SessionSecret)

	assert.False(t, config.IsProduction())
	assert.Equal(t, "http://localhost:5173", config.FrontendURL())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("PORT", "4000")
	os.Setenv("GOOGLE_CLIENT_ID", "some client id")
	os.Setenv("GOOGLE_CLIENT_SECRET", "some client secret")
	os.Setenv("GOOGLE_CALLBACK_URL", "https://api.example.com/auth/google/callback")
	os.Setenv("JWT_SECRET", "some jwt secret")
	os.Setenv("JWT_EXPIRATION", "1h")
	os.Setenv("SESSION_SECRET", "some session secret")
	os.Setenv("SESSION_TTL", "30m")
	os.Setenv("FRONTEND_URL_PROD", "https://app.example.com")
	os.Setenv("REDIS_DB", "3")

	config, err := Load()
	assert.Nil(t, err)
	assert.Equal(t, EnvProduction, config.Environment)
	assert.Equal(t, "4000", config.Port)
	assert.Equal(t, "some client id", config.Google.ClientID)
	assert.Equal(t, "some client secret", config.Google.ClientSecret)
	assert.Equal(t, "https://api.example.com/auth/google/callback", config.Google.CallbackURL)
	assert.Equal(t, "some jwt secret", config.JWTSecret)
	assert.Equal(t, 1*time.Hour, config.JWTExpiration)
	assert.Equal(t, "some session secret", config.SessionSecret)
	assert.Equal(t, 30*time.Minute, config.SessionTTL)
	assert.Equal(t, 3, config.RedisDB)
	assert.True(t, config.IsProduction())
	assert.Equal(t, "https://app.example.com", config.FrontendURL())
}

func TestLoadProductionFailsClosed(t *testing.T) {
	clearEnv()
	os.Setenv("APP_ENV", "production")

	//no provider secrets
	config, err := Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production", err.Error())

	//no jwt secret
	os.Setenv("GOOGLE_CLIENT_ID", "some client id")
	os.Setenv("GOOGLE_CLIENT_SECRET", "some client secret")
	config, err = Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "JWT_SECRET is required in production", err.Error())

	//no session secret
	os.Setenv("JWT_SECRET", "some jwt secret")
	config, err = Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "SESSION_SECRET is required in production", err.Error())

	//no production frontend url
	os.Setenv("SESSION_SECRET", "some session secret")
	config, err = Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "FRONTEND_URL_PROD is required in production", err.Error())

	os.Setenv("FRONTEND_URL_PROD", "https://app.example.com")
	config, err = Load()
	assert.Nil(t, err)
	assert.NotNil(t, config)
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_EXPIRATION", "one day")
	config, err := Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "invalid duration for JWT_EXPIRATION : one day", err.Error())
}

func TestLoadInvalidRedisDB(t *testing.T) {
	clearEnv()
	os.Setenv("REDIS_DB", "three")
	config, err := Load()
	assert.Nil(t, config)
	assert.NotNil(t, err)
	assert.Equal(t, "invalid integer for REDIS_DB : three", err.Error())
}
