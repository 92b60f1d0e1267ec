package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is loaded once in main and handed to every constructor. Components
// never read the environment themselves.
type Config struct {
	Port        string
	DatabaseURL string

	// Shared secret for the bot gateway and admin tokens (HS256).
	ServiceTokenSecret string

	// Outbound bot gateway.
	GatewayBaseURL string
	GatewayToken   string

	ValidationQuorum   float64
	MinReflectionChars int
	MinHours           float64
	MaxHours           float64
	SimilarityBlock    float64
	LeaderboardSize    int

	PendingTTL    time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServiceTokenSecret: os.Getenv("SERVICE_TOKEN_SECRET"),
		GatewayBaseURL:     os.Getenv("GATEWAY_BASE_URL"),
		GatewayToken:       os.Getenv("GATEWAY_TOKEN"),
		ValidationQuorum:   getEnvFloat("VALIDATION_QUORUM", 3),
		MinReflectionChars: getEnvInt("MIN_REF_CHARS", 150),
		MinHours:           getEnvFloat("MIN_HOURS", 20),
		MaxHours:           getEnvFloat("MAX_HOURS", 28),
		SimilarityBlock:    getEnvFloat("SIMILARITY_BLOCK", 0.90),
		LeaderboardSize:    getEnvInt("LEADERBOARD_SIZE", 10),
		PendingTTL:         getEnvDuration("PENDING_TTL", 24*time.Hour),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 30*time.Minute),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ServiceTokenSecret == "" {
		return nil, fmt.Errorf("SERVICE_TOKEN_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
