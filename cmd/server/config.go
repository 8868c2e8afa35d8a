package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// config is read from the environment (and .env when present).
type config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	CacheTTL        time.Duration
	MinHealthFactor float64
}

func loadConfig() (config, error) {
	cfg := config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CacheTTL:        30 * time.Second,
		MinHealthFactor: 1.5,
	}

	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return config{}, fmt.Errorf("CACHE_TTL %q: must be a positive duration", raw)
		}
		cfg.CacheTTL = ttl
	}

	if raw := os.Getenv("MIN_HEALTH_FACTOR"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 1 {
			return config{}, fmt.Errorf("MIN_HEALTH_FACTOR %q: must be a number above 1", raw)
		}
		cfg.MinHealthFactor = v
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
