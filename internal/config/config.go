package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-wide configuration loaded once at startup.
// The signing secret and hash cost are immutable for the lifetime of the
// process; rotating the secret requires a restart and logs out every session.
type Config struct {
	Port          string
	DatabaseURL   string
	TokenSecret   string
	TokenTTL      time.Duration
	HashTime      uint32
	HashMemoryKB  uint32
	HashThreads   uint8
	CORSOrigins   []string
	AdminSeedPath string
}

// Load reads configuration from the environment. TOKEN_SECRET and
// DATABASE_URL are required; everything else has a working default.
func Load() (Config, error) {
	hashTime, err := boundedEnv("HASH_TIME", 1, math.MaxUint32)
	if err != nil {
		return Config{}, err
	}
	hashMemoryKB, err := boundedEnv("HASH_MEMORY_KB", 64*1024, math.MaxUint32)
	if err != nil {
		return Config{}, err
	}
	hashThreads, err := boundedEnv("HASH_THREADS", 4, math.MaxUint8)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "5050"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TokenSecret:   strings.TrimSpace(os.Getenv("TOKEN_SECRET")),
		TokenTTL:      time.Duration(intEnv("TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		HashTime:      uint32(hashTime),
		HashMemoryKB:  uint32(hashMemoryKB),
		HashThreads:   uint8(hashThreads),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ORIGINS"), "http://localhost:5173,http://localhost:5174")),
		AdminSeedPath: strings.TrimSpace(os.Getenv("ADMIN_SEED_PATH")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET is required")
	}
	return cfg, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// boundedEnv parses a positive integer from the environment and rejects
// out-of-range values instead of letting a later narrowing cast truncate them.
func boundedEnv(key string, def, max int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > max {
		return 0, fmt.Errorf("%s must be an integer between 1 and %d", key, max)
	}
	return v, nil
}

func intEnv(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
