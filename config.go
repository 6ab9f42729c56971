package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the editor options. It is treated as immutable for the
// duration of a render; changes go through Editor.Update.
type Config struct {
	Scale  float64     `yaml:"scale"`
	Image  string      `yaml:"image,omitempty"`
	Border int         `yaml:"border"`
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`
	Color  Color       `yaml:"color"`
	Bounds BoundPolicy `yaml:"bounds"`

	// OnImageReady is called once per committed image load.
	OnImageReady func() `yaml:"-"`
}

// DefaultConfig returns the default editor configuration.
func DefaultConfig() Config {
	return Config{
		Scale:  1,
		Border: 25,
		Width:  200,
		Height: 200,
		Color:  defaultColor,
		Bounds: BoundLegacy,
	}
}

var errInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration at the boundary so the geometry code
// can assume positive sizes and scale.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size must be positive, got %dx%d", errInvalidConfig, c.Width, c.Height)
	case c.Border < 0:
		return fmt.Errorf("%w: border must not be negative, got %d", errInvalidConfig, c.Border)
	case !(c.Scale > 0) || math.IsInf(c.Scale, 0):
		return fmt.Errorf("%w: scale must be positive, got %v", errInvalidConfig, c.Scale)
	case c.Bounds != "" && !c.Bounds.valid():
		return fmt.Errorf("%w: unknown bound policy %q", errInvalidConfig, c.Bounds)
	}
	if err := c.Color.validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
