// Package config loads the settings of the fighting server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "FIGHTING_"

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	OpenAPI OpenAPIConfig `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodySize  int64         `yaml:"max_body_size"` // bytes
	SourceDir    string        `yaml:"source_dir"`    // Go package read for documentation
	Debug        bool          `yaml:"debug"`         // panic stacks in 500 bodies
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// AuthConfig configures the $auth directive.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret,omitempty"`
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// OpenAPIConfig configures the OpenAPI document.
type OpenAPIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /openapi.json
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Load reads configuration from a YAML file. An empty path loads the
// defaults and the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		data = []byte(os.ExpandEnv(string(data)))

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies FIGHTING_* environment variables to the config.
// Environment variables always override file-based configuration.
//
//	FIGHTING_SERVER_HOST, FIGHTING_SERVER_PORT, FIGHTING_SERVER_MAX_BODY_SIZE
//	FIGHTING_SERVER_SOURCE_DIR, FIGHTING_AUTH_JWT_SECRET
//	FIGHTING_CORS_ENABLED, FIGHTING_CORS_ALLOW_ORIGINS (comma separated)
//	FIGHTING_LOG_LEVEL, FIGHTING_LOG_FORMAT
//	FIGHTING_METRICS_ENABLED, FIGHTING_METRICS_PATH
//	FIGHTING_OPENAPI_ENABLED, FIGHTING_OPENAPI_PATH
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := env("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := env("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := env("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := env("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := env("SERVER_MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodySize = n
		}
	}
	if v := env("SERVER_SOURCE_DIR"); v != "" {
		cfg.Server.SourceDir = v
	}
	if v := env("SERVER_DEBUG"); v != "" {
		cfg.Server.Debug = parseBool(v)
	}

	if v := env("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := env("CORS_ENABLED"); v != "" {
		cfg.CORS.Enabled = parseBool(v)
	}
	if v := env("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}

	// Logging configuration
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := env("METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := env("OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
	if v := env("OPENAPI_PATH"); v != "" {
		cfg.OpenAPI.Path = v
	}
}

func env(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 10 << 20
	}

	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.OpenAPI.Path == "" {
		cfg.OpenAPI.Path = "/openapi.json"
	}
	if cfg.OpenAPI.Version == "" {
		cfg.OpenAPI.Version = "0.0.0"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must not be negative")
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	for _, p := range []struct{ name, path string }{
		{"metrics.path", cfg.Metrics.Path},
		{"openapi.path", cfg.OpenAPI.Path},
	} {
		if !strings.HasPrefix(p.path, "/") {
			return fmt.Errorf("%s must start with '/', got %q", p.name, p.path)
		}
	}
	return nil
}
