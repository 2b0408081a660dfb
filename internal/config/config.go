// Package config holds the tool-wide settings: default validity, CSR
// extension policy, KDF work factors, output directory and audit log.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig   = "MKCERT_CONFIG"
	EnvOutDir   = "MKCERT_OUT_DIR"
	EnvAuditLog = "MKCERT_AUDIT_LOG"
)

// Defaults.
const (
	DefaultValidityDays     = 366
	DefaultKeyKDFIterations = 10000
	DefaultP12KDFIterations = 2048
	DefaultOutDir           = "."
)

// ErrInvalidConfig indicates the configuration file is unreadable or invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the tool configuration.
type Config struct {
	// DefaultValidityDays applies to requests without days_until_expiration.
	DefaultValidityDays uint `yaml:"default_validity_days"`

	// CSRSubjectAltName requests a SAN holding the common name in CSRs.
	CSRSubjectAltName bool `yaml:"csr_subject_alt_name"`

	// KeyKDFIterations is the PBKDF2 work factor of encrypted key files.
	KeyKDFIterations int `yaml:"key_kdf_iterations"`

	// P12KDFIterations is the PBKDF2 work factor of PKCS#12 archives.
	P12KDFIterations int `yaml:"p12_kdf_iterations"`

	// OutDir receives key, certificate and CSR files.
	OutDir string `yaml:"out_dir"`

	// AuditLog is the audit log path. Empty disables auditing.
	AuditLog string `yaml:"audit_log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultValidityDays: DefaultValidityDays,
		CSRSubjectAltName:   true,
		KeyKDFIterations:    DefaultKeyKDFIterations,
		P12KDFIterations:    DefaultP12KDFIterations,
		OutDir:              DefaultOutDir,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (or $MKCERT_CONFIG when path is empty), then environment overrides.
// A missing file is an error only when a path was given.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config %s: %v", ErrInvalidConfig, path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOutDir); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv(EnvAuditLog); v != "" {
		c.AuditLog = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DefaultValidityDays == 0 {
		return fmt.Errorf("%w: default_validity_days must be at least 1", ErrInvalidConfig)
	}
	if c.KeyKDFIterations < 1 {
		return fmt.Errorf("%w: key_kdf_iterations must be at least 1", ErrInvalidConfig)
	}
	if c.P12KDFIterations < 1 {
		return fmt.Errorf("%w: p12_kdf_iterations must be at least 1", ErrInvalidConfig)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%w: out_dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
