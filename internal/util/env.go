package util

import (
	"os"
	"strconv"
	"strings"

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

	if val, err := strconv.Atoi(strings.TrimSpace(strVal)); err == nil {
		return val
	}

	if strVal != "" {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Ignoring non-integer env value")
	}
	return defaultVal
}

func GetEnvAsUint32(key string, defaultVal uint32) uint32 {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseUint(strings.TrimSpace(strVal), 10, 32); err == nil {
		return uint32(val)
	}

	if strVal != "" {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Ignoring non-uint32 env value")
	}
	return defaultVal
}

// GetEnvAsUint8 is used for share counts, which are bounded by 255.
func GetEnvAsUint8(key string, defaultVal uint8) uint8 {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseUint(strings.TrimSpace(strVal), 10, 8); err == nil {
		return uint8(val)
	}

	if strVal != "" {
		log.Warn().Str("key", key).Str("value", strVal).Msg("Ignoring non-uint8 env value")
	}
	return defaultVal
}

func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseBool(strings.TrimSpace(strVal)); err == nil {
		return val
	}

	return defaultVal
}
