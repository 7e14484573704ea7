// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

// Config holds every setting of the API server.
type Config struct {
	Port             string
	LogLevel         string
	MaxImageBytes    int64
	ProcessingDelay  time.Duration
	ProcessingJitter time.Duration
	PreprocessDelay  time.Duration
	ModelVersion     string
	InflightTTL      time.Duration
	ResultTTL        time.Duration
	RedisAddr        string
	DatabaseDSN      string
	InferenceAddr    string
	JWTSecret        string
	JWTAudience      string
	CORSOrigins      []string
	AssetsDir        string
	ShutdownTimeout  time.Duration
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ModelVersion:  getEnv("MODEL_VERSION", tryon.ModelVersion),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		InferenceAddr: os.Getenv("INFERENCE_ADDR"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		AssetsDir:     os.Getenv("ASSETS_DIR"),
	}

	var err error
	if cfg.MaxImageBytes, err = getInt64("MAX_IMAGE_BYTES", tryon.DefaultMaxImageBytes); err != nil {
		return nil, err
	}
	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"PROCESSING_DELAY", 3 * time.Second, &cfg.ProcessingDelay},
		{"PROCESSING_JITTER", 500 * time.Millisecond, &cfg.ProcessingJitter},
		{"PREPROCESS_DELAY", 500 * time.Millisecond, &cfg.PreprocessDelay},
		{"INFLIGHT_TTL", 30 * time.Second, &cfg.InflightTTL},
		{"RESULT_TTL", 5 * time.Minute, &cfg.ResultTTL},
		{"SHUTDOWN_TIMEOUT", 15 * time.Second, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", cfg.MaxImageBytes)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AllowAllOrigins reports whether CORS is unrestricted: either "*" is listed
// or no origin is configured.
func (c *Config) AllowAllOrigins() bool {
	if len(c.CORSOrigins) == 0 {
		return true
	}
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
