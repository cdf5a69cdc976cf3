package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration for the API server.
type Config struct {
	DatabaseURL         string
	Port                string
	CoinGeckoBaseURL    string
	CoinGeckoAPIKey     string
	ListCacheTTL        time.Duration
	DetailCacheTTL      time.Duration
	ChartCacheTTL       time.Duration
	ListCacheMaxEntries int
	HistoryDays         int
	ProviderMaxRPS      float64
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                envDefault("PORT", "8080"),
		CoinGeckoBaseURL:    os.Getenv("COINGECKO_BASE_URL"),
		CoinGeckoAPIKey:     os.Getenv("COINGECKO_API_KEY"),
		ListCacheTTL:        envDuration("LIST_CACHE_TTL", 60*time.Second),
		DetailCacheTTL:      envDuration("DETAIL_CACHE_TTL", 5*time.Minute),
		ChartCacheTTL:       envDuration("CHART_CACHE_TTL", 5*time.Minute),
		ListCacheMaxEntries: envInt("LIST_CACHE_MAX_ENTRIES", 10),
		HistoryDays:         envInt("HISTORY_DAYS", 7),
		ProviderMaxRPS:      envFloat("PROVIDER_MAX_RPS", 2),
	}

	var validationErrs []string
	requireEnv("DATABASE_URL", cfg.DatabaseURL, &validationErrs)

	if cfg.HistoryDays <= 0 {
		validationErrs = append(validationErrs, "HISTORY_DAYS must be positive")
	}
	if cfg.ProviderMaxRPS <= 0 {
		validationErrs = append(validationErrs, "PROVIDER_MAX_RPS must be positive")
	}

	if len(validationErrs) > 0 {
		return cfg, errors.New(strings.Join(validationErrs, "; "))
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func requireEnv(name, value string, errs *[]string) {
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, name+" is required")
	}
}
