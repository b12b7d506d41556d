package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

//insecure fallback secrets, refused in production
const (
	devJWTSecret     = "dev-jwt-secret-key"
	devSessionSecret = "dev-session-secret-key"
)

type Google struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type Config struct {
	Environment string
	Port        string

	Google Google

	JWTSecret     string
	JWTExpiration time.Duration

	SessionSecret string
	SessionTTL    time.Duration

	FrontendURLDev  string
	FrontendURLProd string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads the gateway configuration from the environment. Secrets have no
// default in production : a production process with a missing secret refuses
// to start instead of running on a guessable key.
func Load() (*Config, error) {
	config := &Config{
		Environment: getEnv("APP_ENV", EnvDevelopment),
		Port:        getEnv("PORT", "3000"),
		Google: Google{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:3000/auth/google/callback"),
		},
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		FrontendURLDev:  getEnv("FRONTEND_URL_DEV", "http://localhost:5173"),
		FrontendURLProd: os.Getenv("FRONTEND_URL_PROD"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
	}
	jwtExpiration, err := getDuration("JWT_EXPIRATION", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	config.JWTExpiration = jwtExpiration
	sessionTTL, err := getDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	config.SessionTTL = sessionTTL
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	config.RedisDB = redisDB

	if config.Environment == EnvProduction {
		if config.Google.ClientID == "" || config.Google.ClientSecret == "" {
			return nil, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production")
		}
		if config.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		if config.SessionSecret == "" {
			return nil, errors.New("SESSION_SECRET is required in production")
		}
		if config.FrontendURLProd == "" {
			return nil, errors.New("FRONTEND_URL_PROD is required in production")
		}
		return config, nil
	}
	if config.JWTSecret == "" {
		log.Printf("[CONFIG] JWT_SECRET is not set, using the development fallback secret")
		config.JWTSecret = devJWTSecret
	}
	if config.SessionSecret == "" {
		log.Printf("[CONFIG] SESSION_SECRET is not set, using the development fallback secret")
		config.SessionSecret = devSessionSecret
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// FrontendURL returns the redirect target for the credential hand-off.
func (c *Config) FrontendURL() string {
	if c.IsProduction() {
		return c.FrontendURLProd
	}
	return c.FrontendURLDev
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("invalid integer for " + key + " : " + value)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.New("invalid duration for " + key + " : " + value)
	}
	return d, nil
}
