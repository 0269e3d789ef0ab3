package app

import "cryptostore/internal/config"

// Config holds runtime wiring options for building the app. Empty fields
// leave the settings file value in place.
type Config struct {
	ConfigFile    string // settings file; empty means ~/.cryptostore/config.yaml
	Root          string // store directory override
	AllowInsecure bool   // permit creating unencrypted stores
	LogLevel      string // log level override
}

// Settings loads the settings file and applies the overrides.
func (c Config) Settings() (config.Config, error) {
	s, err := config.Load(c.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if c.Root != "" {
		s.Root = c.Root
	}
	if c.AllowInsecure {
		s.AllowInsecure = true
	}
	if c.LogLevel != "" {
		s.Log.Level = c.LogLevel
	}
	if err := s.Finalize(); err != nil {
		return config.Config{}, err
	}
	return s, nil
}
