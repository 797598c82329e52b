package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when the config file omits a field.
const (
	defaultServerAddr      = ":8080"
	defaultDatabaseDSN     = "numstore.db"
	defaultProviderTimeout = 30 * time.Second
	defaultJWTExpiryHours  = 72
	defaultLogLevel        = "info"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds the local persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or Postgres DSN.
}

// RedisConfig holds the optional reference-data cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // Empty disables Redis; cache falls back to memory.
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig holds the remote provisioning API settings.
type ProviderConfig struct {
	BaseURL        string `yaml:"base-url"`
	APIKey         string `yaml:"api-key"`
	TimeoutSeconds int    `yaml:"timeout-seconds"`
}

// Timeout returns the per-call budget for provider requests.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return defaultProviderTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the token lifetime.
func (j JWTConfig) Expiry() time.Duration {
	if j.ExpiryHours <= 0 {
		return defaultJWTExpiryHours * time.Hour
	}
	return time.Duration(j.ExpiryHours) * time.Hour
}

// LogConfig holds logging output settings.
type LogConfig struct {
	File       string `yaml:"file"` // Empty logs to stderr only.
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Level      string `yaml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads and validates the YAML config file at path.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}
	applyDefaults(&cfg)
	if errValidate := cfg.Validate(); errValidate != nil {
		return cfg, errValidate
	}
	return cfg, nil
}

// Defaults returns a config populated with default values.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Validate checks required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return fmt.Errorf("config: provider.base-url is required")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("config: provider.api-key is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = defaultDatabaseDSN
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = defaultLogLevel
	}
}
