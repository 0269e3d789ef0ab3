// Package config loads the cryptostore settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/logger"
	"cryptostore/internal/store"
)

const (
	// DefaultDir holds the stores and the config file.
	DefaultDir = "~/.cryptostore"
	// DefaultFile is the config file name inside DefaultDir.
	DefaultFile = "config.yaml"
)

// Config is the on-disk configuration.
type Config struct {
	Root                     string           `yaml:"root"`
	AllowInsecure            bool             `yaml:"allow_insecure"`
	KDF                      crypto.KDFParams `yaml:"kdf"`
	MaxConcurrentDerivations int64            `yaml:"max_concurrent_derivations"`
	Log                      logger.Config    `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Root:                     DefaultDir,
		KDF:                      crypto.DefaultKDFParams(),
		MaxConcurrentDerivations: 2,
		Log:                      logger.Config{Level: "info", Format: "json"},
	}
}

// DefaultPath returns the expanded path of the default config file.
func DefaultPath() (string, error) {
	return homedir.Expand(filepath.Join(DefaultDir, DefaultFile))
}

// Load reads the YAML file at path over the defaults. An empty path means the
// default file, which may be missing; an explicit path must exist.
func Load(path string) (Config, error) {
	const op = "config.Load"

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, types.ConfigurationError(op, err.Error())
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, types.ConfigurationError(op, err.Error())
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return Config{}, types.ConfigurationError(op, fmt.Sprintf("read %s: %v", path, err))
	default:
		if cfg, err = Parse(raw); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, types.ConfigurationError("config.Parse", err.Error())
	}
	return cfg, nil
}

// Finalize expands "~" in Root and validates the result.
func (c *Config) Finalize() error {
	root, err := homedir.Expand(c.Root)
	if err != nil {
		return types.ConfigurationError("config.Finalize", err.Error())
	}
	c.Root = root
	return c.Validate()
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	const op = "config.Validate"
	if c.Root == "" {
		return types.ConfigurationError(op, "root must be set")
	}
	if err := c.KDF.Validate(); err != nil {
		return types.ConfigurationError(op, err.Error())
	}
	if c.MaxConcurrentDerivations < 1 {
		return types.ConfigurationError(op, "max_concurrent_derivations must be at least 1")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return types.ConfigurationError(op, err.Error())
	}
	return nil
}

// Store returns the opener settings.
func (c Config) Store() store.Config {
	return store.Config{
		Root:                     c.Root,
		KDF:                      c.KDF,
		AllowInsecure:            c.AllowInsecure,
		MaxConcurrentDerivations: c.MaxConcurrentDerivations,
	}
}
