// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// Variable names are derived from the struct layout: the group name, then
// the field name split on word boundaries. Server.ReadTimeout is read from
// SERVER_READ_TIMEOUT, Logging.Level from LOG_LEVEL.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig `envconfig:"LOG"`
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `split_words:"true" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `split_words:"true" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request, body included (default: 30s)
	ReadTimeout time.Duration `split_words:"true" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 90s)
	WriteTimeout time.Duration `split_words:"true" default:"90s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `split_words:"true" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `split_words:"true" default:"60s"`
}

// StorageConfig holds flat-file locations.
type StorageConfig struct {
	// UploadDir receives raw uploads (default: uploads)
	UploadDir string `split_words:"true" default:"uploads"`

	// CleanedDir receives cleaned_<name> outputs (default: cleaned)
	CleanedDir string `split_words:"true" default:"cleaned"`
}

// UploadConfig holds upload and cleaning settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `split_words:"true" default:"104857600"`

	// DefaultNumeric preselects the numeric strategy on the upload form (default: mean)
	DefaultNumeric string `split_words:"true" default:"mean"`

	// DefaultCategorical preselects the categorical strategy on the upload form (default: mode)
	DefaultCategorical string `split_words:"true" default:"mode"`

	// ResultRetention is how long run results stay available at /api/runs (default: 15m)
	ResultRetention time.Duration `split_words:"true" default:"15m"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `split_words:"true" default:"true"`

	// RequestsPerMinute is the sustained rate per client IP (default: 100)
	RequestsPerMinute int `split_words:"true" default:"100"`

	// Burst is how many requests a client may make at once (default: 20)
	Burst int `split_words:"true" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `split_words:"true"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `split_words:"true" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `split_words:"true" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `split_words:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `split_words:"true" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `split_words:"true" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics (default: true)
	Enabled bool `split_words:"true" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
