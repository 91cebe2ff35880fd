// Package config loads SIDAK settings from an optional YAML file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/sidak/internal/policy"
)

// Config holds all SIDAK configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db"`
	LogPath   string `yaml:"log"`
	AdminUser string `yaml:"admin_user"`

	Policy PolicyConfig `yaml:"policy"`
	Codes  CodesConfig  `yaml:"codes"`
}

// PolicyConfig configures access decisions.
type PolicyConfig struct {
	// UnscopedAccess is "all" or "none"; see policy.UnscopedAccess.
	UnscopedAccess string `yaml:"unscoped_access"`
}

// CodesConfig configures automatic item codes.
type CodesConfig struct {
	// Prefixes maps additional jenis labels to code prefixes.
	Prefixes map[string]string `yaml:"prefixes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		DBPath:    "sidak.sqlite3",
		AdminUser: "admin",
		Policy:    PolicyConfig{UnscopedAccess: string(policy.UnscopedAll)},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"SIDAK_ADDR":            &c.Addr,
		"SIDAK_DB":              &c.DBPath,
		"SIDAK_LOG":             &c.LogPath,
		"SIDAK_ADMIN_USER":      &c.AdminUser,
		"SIDAK_UNSCOPED_ACCESS": &c.Policy.UnscopedAccess,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// Validate checks values that have a fixed vocabulary.
func (c *Config) Validate() error {
	switch policy.UnscopedAccess(c.Policy.UnscopedAccess) {
	case policy.UnscopedAll, policy.UnscopedNone:
	case "":
		c.Policy.UnscopedAccess = string(policy.UnscopedAll)
	default:
		return fmt.Errorf("invalid policy.unscoped_access %q (want %q or %q)",
			c.Policy.UnscopedAccess, policy.UnscopedAll, policy.UnscopedNone)
	}
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	return nil
}

// PolicyConfig returns the access policy configuration.
func (c *Config) PolicyConfig() policy.Config {
	return policy.Config{Unscoped: policy.UnscopedAccess(c.Policy.UnscopedAccess)}
}
