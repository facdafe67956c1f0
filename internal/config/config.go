// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is shared by the server and the bench CLI
type Config struct {
	Port        string `validate:"required,numeric"`
	DatabaseURL string `validate:"omitempty,url"`
	LogLevel    string `validate:"omitempty,oneof=TRACE DEBUG INFO WARN WARNING ERROR FATAL"`

	// Runner limits
	Concurrency   int     `validate:"gte=1,lte=256"`
	RatePerSecond float64 `validate:"gte=0"` // 0 disables rate limiting
	Burst         int     `validate:"gte=1"`

	// ResultsCacheTTL bounds how long run listings are cached; 0 never expires
	ResultsCacheTTL time.Duration `validate:"gte=0"`
}

func Default() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "INFO",
		Concurrency:   4,
		RatePerSecond: 0,
		Burst:         1,
	}
}

var validate = validator.New()

// Load reads PORT, DATABASE_URL, LOG_LEVEL, BENCH_CONCURRENCY,
// BENCH_RATE_PER_SECOND, BENCH_BURST and RESULTS_CACHE_TTL over Default
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Port = v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToUpper(strings.TrimSpace(v))
	}

	var err error
	if cfg.Concurrency, err = intVar(lookup, "BENCH_CONCURRENCY", cfg.Concurrency); err != nil {
		return Config{}, err
	}
	if cfg.Burst, err = intVar(lookup, "BENCH_BURST", cfg.Burst); err != nil {
		return Config{}, err
	}
	if v, ok := lookup("BENCH_RATE_PER_SECOND"); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BENCH_RATE_PER_SECOND %q: %w", v, err)
		}
		cfg.RatePerSecond = rate
	}
	if v, ok := lookup("RESULTS_CACHE_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESULTS_CACHE_TTL %q: %w", v, err)
		}
		cfg.ResultsCacheTTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints; call it again after applying flag overrides
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func intVar(lookup func(string) (string, bool), name string, def int) (int, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}
