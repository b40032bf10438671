package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// PipelineConfig controls the prediction pipeline.
type PipelineConfig struct {
	// WindowDays is how many of the most recent logged days are analysed.
	WindowDays int `yaml:"window_days"`
	// Timezone is the IANA zone calendar dates are taken in, or "Local".
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const defaultWindowDays = 60

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves the configured timezone.
func (p PipelineConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the configured level to a slog.Level, defaulting to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WELLCAST_ and underscore-separated paths:
//
//	WELLCAST_SERVER_HOST, WELLCAST_SERVER_PORT,
//	WELLCAST_DB_HOST, WELLCAST_DB_PORT, WELLCAST_DB_NAME,
//	WELLCAST_DB_USER, WELLCAST_DB_PASSWORD, WELLCAST_DB_SSLMODE,
//	WELLCAST_AUTH_API_KEY, WELLCAST_PIPELINE_WINDOW_DAYS,
//	WELLCAST_PIPELINE_TIMEZONE, WELLCAST_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WELLCAST_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WELLCAST_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WELLCAST_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WELLCAST_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("WELLCAST_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("WELLCAST_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("WELLCAST_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("WELLCAST_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("WELLCAST_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("WELLCAST_PIPELINE_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.WindowDays = days
		}
	}
	if v := os.Getenv("WELLCAST_PIPELINE_TIMEZONE"); v != "" {
		cfg.Pipeline.Timezone = v
	}
	if v := os.Getenv("WELLCAST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Pipeline.WindowDays == 0 {
		cfg.Pipeline.WindowDays = defaultWindowDays
	}
	if cfg.Pipeline.Timezone == "" {
		cfg.Pipeline.Timezone = "Local"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Pipeline.WindowDays < 3 {
		return fmt.Errorf("pipeline.window_days must be at least 3")
	}
	if _, err := c.Pipeline.Location(); err != nil {
		return fmt.Errorf("pipeline.timezone: %w", err)
	}
	return nil
}
