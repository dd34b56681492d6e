package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eimribar/ads-command-center/pkg/daterange"
)

const (
	dirName     = ".adscc"
	envConfig   = "ADSCC_CONFIG"
	envTimeout  = "ADSCC_TIMEOUT_SECONDS"
	fileName    = "config.yaml"
	envFileName = ".env"
)

// Settings are the user preferences stored in ~/.adscc/config.yaml.
type Settings struct {
	DefaultPeriod  string `yaml:"default_period"`
	Currency       string `yaml:"currency"`
	EventSourceURL string `yaml:"event_source_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	Output         string `yaml:"output"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		DefaultPeriod:  "last_7d",
		Currency:       "USD",
		EventSourceURL: "https://www.agentss.ai",
		TimeoutSeconds: 30,
		MaxRetries:     2,
		Output:         "text",
	}
}

// Dir returns ~/.adscc, creating it when missing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath honours ADSCC_CONFIG, then falls back to ~/.adscc/config.yaml.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// EnvFilePath returns the path of the credential file in ~/.adscc/.
func EnvFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, envFileName), nil
}

// Load reads the settings at path (ConfigPath when empty). A missing file
// yields Defaults. Zero values in the file are filled from Defaults.
func Load(path string) (Settings, string, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return Settings{}, "", err
		}
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return applyEnv(Defaults()), path, nil
	}
	if err != nil {
		return Settings{}, path, err
	}
	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, path, fmt.Errorf("parse %s: %w", path, err)
	}
	return applyEnv(fillDefaults(s)), path, nil
}

func fillDefaults(s Settings) Settings {
	d := Defaults()
	if s.DefaultPeriod == "" {
		s.DefaultPeriod = d.DefaultPeriod
	}
	if s.Currency == "" {
		s.Currency = d.Currency
	}
	if s.EventSourceURL == "" {
		s.EventSourceURL = d.EventSourceURL
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = d.TimeoutSeconds
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = d.MaxRetries
	}
	if s.Output == "" {
		s.Output = d.Output
	}
	return s
}

func applyEnv(s Settings) Settings {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(envTimeout))); err == nil && v > 0 {
		s.TimeoutSeconds = v
	}
	return s
}

// Save writes the settings to path (ConfigPath when empty).
func Save(s Settings, path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{"default_period", "currency", "event_source_url", "timeout_seconds", "max_retries", "output"}
}

// Values returns the settings keyed by their yaml names.
func (s Settings) Values() map[string]string {
	return map[string]string{
		"default_period":   s.DefaultPeriod,
		"currency":         s.Currency,
		"event_source_url": s.EventSourceURL,
		"timeout_seconds":  strconv.Itoa(s.TimeoutSeconds),
		"max_retries":      strconv.Itoa(s.MaxRetries),
		"output":           s.Output,
	}
}

// Set validates value and assigns it to key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "default_period":
		custom := strings.Contains(value, ":")
		if !custom && !slices.Contains(daterange.Presets, value) {
			return fmt.Errorf("default_period must be one of %s or START:END", strings.Join(daterange.Presets, ", "))
		}
		if custom {
			if _, err := daterange.Resolve(value, time.Now()); err != nil {
				return err
			}
		}
		s.DefaultPeriod = value
	case "currency":
		if len(value) != 3 {
			return fmt.Errorf("currency must be a 3-letter ISO code")
		}
		s.Currency = strings.ToUpper(value)
	case "event_source_url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("event_source_url must be an absolute URL")
		}
		s.EventSourceURL = value
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_seconds must be a positive integer")
		}
		s.TimeoutSeconds = n
	case "max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("max_retries must be zero or a positive integer")
		}
		s.MaxRetries = n
	case "output":
		if value != "text" && value != "json" {
			return fmt.Errorf("output must be text or json")
		}
		s.Output = value
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
