package goShell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/goShell/branding"
	"gopkg.in/yaml.v3"
)

// Config defines a public type used by goShell APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Branding BrandingConfig `yaml:"branding"`
	Routes   RoutesConfig   `yaml:"routes"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Audit    AuditConfig    `yaml:"audit"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig names the persisted client store layout.
type SessionConfig struct {
	KeyPrefix     string `yaml:"key_prefix"`
	IdentityKey   string `yaml:"identity_key"`
	CredentialKey string `yaml:"credential_key"`
}

/*
====================================
BRANDING CONFIG
====================================
*/

// BrandingConfig locates the branding endpoint and the logo asset origin.
type BrandingConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Path        string        `yaml:"path"`
	AssetOrigin string        `yaml:"asset_origin"`
	DefaultName string        `yaml:"default_name"`
	Timeout     time.Duration `yaml:"timeout"`
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig holds the routing surface's fixed targets.
type RoutesConfig struct {
	LoggedOut string `yaml:"logged_out"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goShell APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goShell APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

const defaultBackendOrigin = "https://messagemaster-backend.onrender.com"

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			KeyPrefix:     "gs",
			IdentityKey:   "user",
			CredentialKey: "token",
		},
		Branding: BrandingConfig{
			BaseURL:     defaultBackendOrigin,
			Path:        branding.DefaultPath,
			AssetOrigin: defaultBackendOrigin,
			DefaultName: branding.DefaultProductName,
			Timeout:     10 * time.Second,
		},
		Routes: RoutesConfig{
			LoggedOut: "/login",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

// LoadConfig reads a YAML file over the defaults. Fields missing from the
// file keep their default values. The result is validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration error, wrapped in
// [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Session
	if c.Session.KeyPrefix == "" {
		return errors.New("Session KeyPrefix is required")
	}
	if strings.Contains(c.Session.KeyPrefix, ":") {
		return errors.New("Session KeyPrefix must not contain ':'")
	}
	if c.Session.IdentityKey == "" || c.Session.CredentialKey == "" {
		return errors.New("Session IdentityKey and CredentialKey are required")
	}
	if c.Session.IdentityKey == c.Session.CredentialKey {
		return errors.New("Session IdentityKey and CredentialKey must differ")
	}

	// Branding
	if err := validateOrigin("Branding BaseURL", c.Branding.BaseURL); err != nil {
		return err
	}
	if err := validateOrigin("Branding AssetOrigin", c.Branding.AssetOrigin); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Branding.Path, "/") {
		return errors.New("Branding Path must start with '/'")
	}
	if c.Branding.DefaultName == "" {
		return errors.New("Branding DefaultName is required")
	}
	if c.Branding.Timeout <= 0 {
		return errors.New("Branding Timeout must be > 0")
	}

	// Routes
	if !strings.HasPrefix(c.Routes.LoggedOut, "/") {
		return errors.New("Routes LoggedOut must be an absolute path")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func validateOrigin(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a URL: %v", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
