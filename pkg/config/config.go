// Package config holds process-wide configuration, read once at startup
// and immutable thereafter.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the flat server configuration. All values can be set through
// BIO_MCP_* environment variables; defaults follow the published contract.
type Config struct {
	// Execution limits
	MaxFileSize int64         `env:"BIO_MCP_MAX_FILE_SIZE"`
	Timeout     time.Duration `env:"BIO_MCP_TIMEOUT"`

	// External tool
	BedtoolsPath string `env:"BIO_MCP_BEDTOOLS_PATH"`

	// Staging
	TempDir  string        `env:"BIO_MCP_TEMP_DIR"`
	StageTTL time.Duration `env:"BIO_MCP_STAGE_TTL"`

	// Transport
	Transport string `env:"BIO_MCP_TRANSPORT"`
	HTTPAddr  string `env:"BIO_MCP_HTTP_ADDR"`

	// Logging
	LogLevel string `env:"BIO_MCP_LOG_LEVEL"`

	// Telemetry
	TelemetryEnabled bool   `env:"BIO_MCP_TELEMETRY"`
	TelemetryAddr    string `env:"BIO_MCP_TELEMETRY_ADDR"`
}

// Load builds the configuration from defaults, an optional env file, and
// environment variables, then validates it.
func Load(envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Best-effort load of a local .env; absence is not an error.
		_ = godotenv.Load()
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:      100_000_000,
		Timeout:          300 * time.Second,
		BedtoolsPath:     "bedtools",
		TempDir:          "", // os.MkdirTemp treats "" as the system temp dir
		StageTTL:         24 * time.Hour,
		Transport:        "stdio",
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		TelemetryEnabled: false,
		TelemetryAddr:    ":9090",
	}
}

// envMapping defines how one environment variable maps to a config field
type envMapping struct {
	EnvKey string
	Setter func(cfg *Config, value string) error
}

var envMappings = []envMapping{
	{"BIO_MCP_MAX_FILE_SIZE", func(cfg *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("must be an integer byte count: %w", err)
		}
		cfg.MaxFileSize = n
		return nil
	}},
	{"BIO_MCP_TIMEOUT", func(cfg *Config, v string) error {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be an integer number of seconds: %w", err)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
		return nil
	}},
	{"BIO_MCP_BEDTOOLS_PATH", func(cfg *Config, v string) error {
		cfg.BedtoolsPath = v
		return nil
	}},
	{"BIO_MCP_TEMP_DIR", func(cfg *Config, v string) error {
		cfg.TempDir = v
		return nil
	}},
	{"BIO_MCP_STAGE_TTL", func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("must be a duration (e.g. '24h'): %w", err)
		}
		cfg.StageTTL = d
		return nil
	}},
	{"BIO_MCP_TRANSPORT", func(cfg *Config, v string) error {
		cfg.Transport = v
		return nil
	}},
	{"BIO_MCP_HTTP_ADDR", func(cfg *Config, v string) error {
		cfg.HTTPAddr = v
		return nil
	}},
	{"BIO_MCP_LOG_LEVEL", func(cfg *Config, v string) error {
		cfg.LogLevel = v
		return nil
	}},
	{"BIO_MCP_TELEMETRY", func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("must be a boolean: %w", err)
		}
		cfg.TelemetryEnabled = b
		return nil
	}},
	{"BIO_MCP_TELEMETRY_ADDR", func(cfg *Config, v string) error {
		cfg.TelemetryAddr = v
		return nil
	}},
}

func loadFromEnv(cfg *Config) error {
	for _, m := range envMappings {
		v := os.Getenv(m.EnvKey)
		if v == "" {
			continue
		}
		if err := m.Setter(cfg, v); err != nil {
			return fmt.Errorf("%s: %w", m.EnvKey, err)
		}
	}
	return nil
}

// TimeoutSeconds returns the timeout as whole seconds for error messages.
func (c *Config) TimeoutSeconds() int {
	return int(c.Timeout.Seconds())
}

// StagingRoot resolves the directory under which staging directories are
// created. An empty TempDir means the system temp dir.
func (c *Config) StagingRoot() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return os.TempDir()
}

func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.BedtoolsPath == "" {
		return fmt.Errorf("bedtools path must not be empty")
	}
	if c.Transport != "stdio" && c.Transport != "http" {
		return fmt.Errorf("transport must be 'stdio' or 'http', got %q", c.Transport)
	}
	if c.Transport == "http" && c.HTTPAddr == "" {
		return fmt.Errorf("http transport requires an address")
	}
	if c.TelemetryEnabled && c.TelemetryAddr == "" {
		return fmt.Errorf("telemetry requires an address")
	}
	if c.StageTTL <= 0 {
		return fmt.Errorf("stage TTL must be positive, got %s", c.StageTTL)
	}
	return nil
}
