package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup resolves key from the environment. When the plain variable is
// unset, key+"_FILE" is consulted and the trimmed file contents are used,
// so secrets can be mounted as files.
func lookup(key string) (string, bool) {
	if val := os.Getenv(key); val != "" {
		return val, true
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data)), true
		}
	}
	return "", false
}

// Get returns the value of the environment variable key, or def when unset.
func Get(key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}

// GetInt returns the integer value of the environment variable key.
// Unset or unparsable values yield def.
func GetInt(key string, def int) int {
	if val, ok := lookup(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// GetBool returns the boolean value of the environment variable key.
// Recognised true values are 1, t, true, y, yes; false values are
// 0, f, false, n, no (case-insensitive). Anything else yields def.
func GetBool(key string, def bool) bool {
	if val, ok := lookup(key); ok {
		switch strings.ToLower(val) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

// ParseDuration behaves like time.ParseDuration but also accepts a "d"
// suffix for days, so retention windows can be written as "30d".
func ParseDuration(s string) (time.Duration, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if days, ok := strings.CutSuffix(lower, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(lower)
}

// GetDuration returns the duration value of the environment variable key,
// parsed with ParseDuration. Unset or unparsable values yield def.
func GetDuration(key string, def time.Duration) time.Duration {
	if val, ok := lookup(key); ok {
		if d, err := ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
