// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Speech source selection.
const (
	// SpeechSourceSimulated synthesizes transcript lines server-side.
	SpeechSourceSimulated = "simulated"
	// SpeechSourceRelay accepts browser-captured speech over the call socket.
	SpeechSourceRelay = "relay"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	FrontendURL  string
	DBPath       string
	SpeechSource string
	SimCadence   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
		DBPath:       getEnv("DB_PATH", "./data/callcue.db"),
		SpeechSource: strings.ToLower(getEnv("SPEECH_SOURCE", SpeechSourceSimulated)),
		SimCadence:   getEnvDuration("SIM_CADENCE", 3*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.SpeechSource {
	case SpeechSourceSimulated, SpeechSourceRelay:
	default:
		return fmt.Errorf("SPEECH_SOURCE must be %q or %q, got %q", SpeechSourceSimulated, SpeechSourceRelay, c.SpeechSource)
	}
	if c.SimCadence <= 0 {
		return fmt.Errorf("SIM_CADENCE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are treated as seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
