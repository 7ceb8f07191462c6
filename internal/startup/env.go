package startup

import (
	"os"
	"strconv"
	"time"

	"media-bridge/internal/logging"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv parses key with parse, returning defaultValue when the variable
// is unset or parse fails.
func lookupEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		logging.Warn("Invalid value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && n < 0 {
			return 0, strconv.ErrRange
		}
		return n, err
	})
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err == nil && d < 0 {
			return 0, strconv.ErrRange
		}
		return d, err
	})
}
