package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

func lookup(key string, log *logger.Logger) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key)
		}
		return "", false
	}
	return val, true
}

func String(key, def string, log *logger.Logger) string {
	val, ok := lookup(key, log)
	if !ok {
		return def
	}
	return val
}

func Int(key string, def int, log *logger.Logger) int {
	val, ok := lookup(key, log)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "provided", val, "default", def)
		}
		return def
	}
	return i
}

func Float(key string, def float64, log *logger.Logger) float64 {
	val, ok := lookup(key, log)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "env_var", key, "provided", val, "default", def)
		}
		return def
	}
	return f
}

func Bool(key string, def bool, log *logger.Logger) bool {
	val, ok := lookup(key, log)
	if !ok {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "provided", val, "default", def)
	}
	return def
}

// Duration accepts Go duration strings ("90s") or a bare number of seconds.
func Duration(key string, def time.Duration, log *logger.Logger) time.Duration {
	val, ok := lookup(key, log)
	if !ok {
		return def
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as duration, using default", "env_var", key, "provided", val, "default", def)
		}
		return def
	}
	return d
}
