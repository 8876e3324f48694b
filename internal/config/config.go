package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	Refresh RefreshConfig `yaml:"refresh"`
	CSRF    CSRFConfig    `yaml:"csrf"`
	Display DisplayConfig `yaml:"display"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// AdminConfig points the console at the proxy admin API
type AdminConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"`
}

type RefreshConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	StatsCacheTTL time.Duration `yaml:"stats_cache_ttl"`
}

type CSRFConfig struct {
	Secret   string        `yaml:"secret"`
	Lifetime time.Duration `yaml:"lifetime"`
}

type DisplayConfig struct {
	Timezone string `yaml:"timezone"`
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "20010"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:20010")),
		},
		Admin: AdminConfig{
			BaseURL:       strings.TrimRight(getEnv("ADMIN_BASE_URL", "http://localhost:8080"), "/"),
			Username:      getEnv("ADMIN_USER", ""),
			Password:      getEnv("ADMIN_PASSWORD", ""),
			Timeout:       getDuration("ADMIN_TIMEOUT", 15*time.Second),
			RatePerMinute: getInt("ADMIN_RATE_PER_MINUTE", 30),
		},
		Refresh: RefreshConfig{
			Enabled:       getEnv("AUTO_REFRESH", "true") != "false",
			Interval:      getDuration("REFRESH_INTERVAL", 10*time.Second),
			StatsCacheTTL: getDuration("STATS_CACHE_TTL", 2*time.Second),
		},
		CSRF: CSRFConfig{
			Secret:   getEnv("CSRF_SECRET", ""),
			Lifetime: getDuration("CSRF_LIFETIME", 24*time.Hour),
		},
		Display: DisplayConfig{
			Timezone: getEnv("TIMEZONE", "Local"),
		},
	}
}

// LoadFile overlays the YAML file at path on top of cfg. Keys missing
// from the file keep their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Admin.BaseURL = strings.TrimRight(cfg.Admin.BaseURL, "/")
	return nil
}

// Location resolves the display timezone, defaulting to local time.
func (c DisplayConfig) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
