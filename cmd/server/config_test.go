package main

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "MIN_HEALTH_FACTOR"} {
		t.Setenv(k, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v, want 30s", cfg.CacheTTL)
	}
	if cfg.MinHealthFactor != 1.5 {
		t.Errorf("min health factor = %v, want 1.5", cfg.MinHealthFactor)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("MIN_HEALTH_FACTOR", "1.25")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.CacheTTL != 2*time.Minute || cfg.MinHealthFactor != 1.25 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":         "soon",
		"MIN_HEALTH_FACTOR": "0.9",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("CACHE_TTL", "")
			t.Setenv("MIN_HEALTH_FACTOR", "")
			t.Setenv(key, val)
			if _, err := loadConfig(); err == nil {
				t.Errorf("%s=%s should be rejected", key, val)
			}
		})
	}
}
