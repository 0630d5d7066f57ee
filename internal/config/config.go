// Package config loads the YAML configuration shared by the command line
// tools and the demo server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tingold/geoshape"
	"github.com/tingold/geoshape/fgb"
	"github.com/tingold/geoshape/internal/logger"
)

// Config represents the root configuration file structure.
type Config struct {
	Mode    geoshape.Mode `yaml:"mode,omitempty"`    // lenient or strict
	Workers int           `yaml:"workers,omitempty"` // per-feature fan-out
	Log     logger.Logger `yaml:"log,omitempty"`
	FGB     FGB           `yaml:"fgb,omitempty"`
	Server  Server        `yaml:"server,omitempty"`
}

// FGB configures FlatGeobuf output.
type FGB struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	NoIndex     bool   `yaml:"no_index,omitempty"`
}

// Server configures the demo server.
type Server struct {
	Addr string `yaml:"addr,omitempty"`
	File string `yaml:"file,omitempty"` // GeoJSON FeatureCollection to serve
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode:    geoshape.Lenient,
		Workers: 1,
		Server: Server{
			Addr: "localhost:8080",
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("config: %s: workers must not be negative", path)
	}

	return cfg, nil
}

// Options returns the decoder and encoder options described by cfg.
func (c *Config) Options() *geoshape.Options {
	opts := geoshape.DefaultOptions()
	opts.Mode = c.Mode
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	return opts
}

// FGBOptions returns the FlatGeobuf writer options described by cfg.
func (c *Config) FGBOptions() *fgb.Options {
	opts := fgb.DefaultOptions()
	opts.Name = c.FGB.Name
	opts.Description = c.FGB.Description
	opts.IncludeIndex = !c.FGB.NoIndex
	opts.Mode = c.Mode
	return opts
}
