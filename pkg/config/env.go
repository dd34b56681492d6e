package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Lookup returns the value of an environment variable, or "" when unset.
// Platform clients read credentials through a Lookup at call time.
type Lookup func(key string) string

// OSLookup reads the process environment.
func OSLookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// MapLookup reads from a fixed set of values. Useful in tests.
func MapLookup(values map[string]string) Lookup {
	return func(key string) string {
		return strings.TrimSpace(values[key])
	}
}

// Layered checks the process environment first, then the values loaded from env files.
func Layered(fileValues map[string]string) Lookup {
	return func(key string) string {
		if v := OSLookup(key); v != "" {
			return v
		}
		return strings.TrimSpace(fileValues[key])
	}
}

// Has reports whether every key resolves to a non-empty value.
func (l Lookup) Has(keys ...string) bool {
	for _, key := range keys {
		if l(key) == "" {
			return false
		}
	}
	return true
}

// Get returns the value for key or defaultValue when it is empty.
func (l Lookup) Get(key, defaultValue string) string {
	if v := l(key); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvFiles reads the given .env files without touching the process environment.
// Earlier files win over later ones. Missing files are skipped.
func LoadEnvFiles(logger *logrus.Logger, files ...string) map[string]string {
	values := make(map[string]string)
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		fileValues, err := godotenv.Read(file)
		if err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		for k, v := range fileValues {
			if _, exists := values[k]; !exists {
				values[k] = v
			}
		}
		loaded = append(loaded, file)
	}
	if logger != nil {
		if len(loaded) == 0 {
			logger.Debug("No local env files loaded; relying on process environment")
		} else {
			logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
		}
	}
	return values
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetLogLevel gets the log level from environment
func GetLogLevel() logrus.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}
