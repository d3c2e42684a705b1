// Package config loads engine settings from an optional TOML file,
// falling back to sane defaults when the file is absent.
package config

import (
	"github.com/BurntSushi/toml"
)

// Config holds the tunable knobs of the engine that aren't part of the
// byte-oriented search protocol itself: hash size, NNUE weights location,
// and logging verbosity.
type Config struct {
	TTSizeMB    int    `toml:"tt_size_mb"`
	NNUEWeights string `toml:"nnue_weights"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		TTSizeMB: 64,
		LogLevel: "info",
	}
}

// Load reads a TOML file into Config, starting from Default() so that
// fields the file omits keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
