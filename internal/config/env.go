package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the env var key, or fallback when unset or blank.
func String(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Int returns key parsed as an int, or fallback when unset or unparseable.
func Int(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// Float32 returns key parsed as a float32, or fallback when unset or
// unparseable.
func Float32(key string, fallback float32) float32 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 32)
	if err != nil {
		return fallback
	}
	return float32(v)
}

// Duration returns key parsed with time.ParseDuration, or fallback when unset,
// unparseable or not positive.
func Duration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Bool reports whether key is set to a true value ("1", "true", ...).
func Bool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}
