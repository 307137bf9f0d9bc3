package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Invalid integer in env, using default")
		return defaultVal
	}
	return val
}

func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := strconv.ParseUint(strVal, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Invalid unsigned integer in env, using default")
		return defaultVal
	}
	return val
}

func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := strconv.ParseBool(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Invalid boolean in env, using default")
		return defaultVal
	}
	return val
}

func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := time.ParseDuration(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Invalid duration in env, using default")
		return defaultVal
	}
	return val
}

// GetEnvAsStringArr splits a comma separated value and trims the items.
func GetEnvAsStringArr(key string, defaultVal []string) []string {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	parts := strings.Split(strVal, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
