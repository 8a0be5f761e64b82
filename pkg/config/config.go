package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	APIURL          string
	SessionDBURL    string
	SessionSecret   string
	AppEnv          string
	LogLevel        string
	RequestTimeout  time.Duration
	RetryMaxElapsed time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:            getEnv("PORT", "3000"),
		APIURL:          getEnv("API_URL", "http://localhost:8080"),
		SessionDBURL:    getEnv("SESSION_DB_URL", "file:chainhub-session.sqlite"),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		AppEnv:          getEnv("APP_ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 10*time.Second),
		RetryMaxElapsed: getDuration("RETRY_MAX_ELAPSED", 5*time.Second),
	}
}

// IsProduction reports whether cookies must only travel over HTTPS.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocal reports whether the app runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
