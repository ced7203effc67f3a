// Package config resolves the workspace location and defaults for the
// hivemem CLI. Precedence is flag > environment > config file > default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables honored by Load.
const (
	EnvHome     = "HIVEMEM_HOME"
	EnvDB       = "HIVEMEM_DB"
	EnvIdentity = "HIVEMEM_IDENTITY"
)

// fileConfig is the optional YAML file at <home>/config.yaml.
type fileConfig struct {
	DB       string `yaml:"db"`
	Identity string `yaml:"identity"`
}

// Config is the resolved workspace configuration.
type Config struct {
	Home     string // workspace directory
	DBPath   string // memory store file
	Identity string // default identity for --as
}

// Load resolves the configuration. flagHome and flagDB come from CLI
// flags and win over everything else; empty means unset. A .env file in
// the working directory is loaded first, if present, so environment
// lookups see it.
func Load(flagHome, flagDB string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	home := flagHome
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		home = filepath.Join(userHome, ".hivemem")
	}

	var fc fileConfig
	if b, err := os.ReadFile(filepath.Join(home, "config.yaml")); err == nil {
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return nil, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	db := flagDB
	if db == "" {
		db = os.Getenv(EnvDB)
	}
	if db == "" {
		db = fc.DB
	}
	if db == "" {
		db = filepath.Join(home, "memory.db")
	}

	identity := os.Getenv(EnvIdentity)
	if identity == "" {
		identity = fc.Identity
	}

	return &Config{Home: home, DBPath: db, Identity: identity}, nil
}

// ChannelsPath is the sibling coordination-channel store.
func (c *Config) ChannelsPath() string {
	return filepath.Join(filepath.Dir(c.DBPath), "channels.db")
}

// AuditPath is the sibling audit-log store.
func (c *Config) AuditPath() string {
	return filepath.Join(filepath.Dir(c.DBPath), "audit.db")
}
