// Package config loads the virtd process configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen      = "[::]:50052"
	DefaultURI         = "qemu:///system"
	DefaultLogLevel    = "info"
	DefaultDialTimeout = 5 * time.Second
	DefaultPath        = "/etc/virtd/virtd.yaml"
)

// Config is the virtd daemon configuration.
type Config struct {
	Listen      string        `yaml:"listen"`
	URI         string        `yaml:"uri"`
	LogLevel    string        `yaml:"log_level"`
	SocketPath  string        `yaml:"socket_path,omitempty"` // libvirtd socket for local URIs (default: go-libvirt's)
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// StrictErrors reports hypervisor failures as gRPC status errors instead
	// of acknowledging every Create and Control request.
	StrictErrors bool `yaml:"strict_errors"`

	// SerializeNativeCalls funnels all hypervisor calls through one mutex.
	SerializeNativeCalls bool `yaml:"serialize_native_calls"`

	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Empty uses the
	// exporter's environment-based default.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen:      DefaultListen,
		URI:         DefaultURI,
		LogLevel:    DefaultLogLevel,
		DialTimeout: DefaultDialTimeout,
	}
}

// LoadFromFile reads a config file over the defaults. A missing file yields
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize trims string fields and fills in defaults for fields left
// empty.
func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	c.URI = strings.TrimSpace(c.URI)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.SocketPath = strings.TrimSpace(c.SocketPath)
	c.Tracing.OTLPEndpoint = strings.TrimSpace(c.Tracing.OTLPEndpoint)

	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.URI == "" {
		c.URI = DefaultURI
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
}

// Validate checks the configuration for errors. It does not contact the
// hypervisor.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("listen must be host:port, got %q: %w", c.Listen, err)
	}

	if c.URI == "" {
		return fmt.Errorf("uri is required")
	}
	u, err := url.Parse(c.URI)
	if err != nil {
		return fmt.Errorf("uri: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("uri must include a driver scheme, got %q", c.URI)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if c.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must be >= 0, got %s", c.DialTimeout)
	}

	if c.Tracing.OTLPEndpoint != "" && !c.Tracing.Enabled {
		return fmt.Errorf("tracing.otlp_endpoint is set but tracing.enabled is false")
	}
	return nil
}
