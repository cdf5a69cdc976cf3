package config

import (
	"strings"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"DATABASE_URL",
		"PORT",
		"COINGECKO_BASE_URL",
		"COINGECKO_API_KEY",
		"LIST_CACHE_TTL",
		"DETAIL_CACHE_TTL",
		"CHART_CACHE_TTL",
		"LIST_CACHE_MAX_ENTRIES",
		"HISTORY_DAYS",
		"PROVIDER_MAX_RPS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadSuccess(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://db")
	t.Setenv("PORT", "9090")
	t.Setenv("COINGECKO_API_KEY", "demo-key")
	t.Setenv("LIST_CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseURL != "postgresql://db" {
		t.Fatalf("unexpected DATABASE_URL: %q", cfg.DatabaseURL)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.CoinGeckoAPIKey != "demo-key" {
		t.Fatalf("unexpected COINGECKO_API_KEY: %q", cfg.CoinGeckoAPIKey)
	}
	if cfg.ListCacheTTL != 90*time.Second {
		t.Fatalf("expected list cache ttl 90s, got %v", cfg.ListCacheTTL)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ListCacheTTL != 60*time.Second {
		t.Fatalf("expected default list cache ttl 60s, got %v", cfg.ListCacheTTL)
	}
	if cfg.DetailCacheTTL != 5*time.Minute {
		t.Fatalf("expected default detail cache ttl 5m, got %v", cfg.DetailCacheTTL)
	}
	if cfg.ListCacheMaxEntries != 10 {
		t.Fatalf("expected default list cache max entries 10, got %d", cfg.ListCacheMaxEntries)
	}
	if cfg.HistoryDays != 7 {
		t.Fatalf("expected default history days 7, got %d", cfg.HistoryDays)
	}
}

func TestLoadGarbageFallsBackToDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://db")
	t.Setenv("LIST_CACHE_TTL", "not-a-duration")
	t.Setenv("HISTORY_DAYS", "seven")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ListCacheTTL != 60*time.Second {
		t.Fatalf("expected fallback list cache ttl, got %v", cfg.ListCacheTTL)
	}
	if cfg.HistoryDays != 7 {
		t.Fatalf("expected fallback history days, got %d", cfg.HistoryDays)
	}
}

func TestLoadValidation(t *testing.T) {
	clearConfigEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL is required") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadRejectsNonPositiveHistoryDays(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://db")
	t.Setenv("HISTORY_DAYS", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "HISTORY_DAYS") {
		t.Fatalf("expected HISTORY_DAYS error, got %v", err)
	}
}
