// SPDX-License-Identifier: EPL-2.0

// Package config loads device and MIDI settings from YAML.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// SoundfontEnv overrides the configured default soundfont when set.
const SoundfontEnv = "ALSOFT_SOUNDFONT"

// Backend names accepted by midi.backend. An empty name selects
// automatically.
var Backends = []string{"", "meltysynth", "soft", "null"}

//go:embed default.yml
var defaultConfig []byte

type (
	Config struct {
		MIDI   MIDI   `yaml:"midi"`
		Device Device `yaml:"device"`
	}

	MIDI struct {
		// Soundfont is the path of the file loaded into the default soundfont.
		Soundfont string `yaml:"soundfont"`
		// InternalSynth allows the built-in sample player backend.
		InternalSynth bool `yaml:"internal-synth"`
		// Volume is the bridge output level in dB. nil leaves the default scale.
		Volume       *float64 `yaml:"volume"`
		Backend      string   `yaml:"backend"`
		Polyphony    int      `yaml:"polyphony"`
		ReverbChorus bool     `yaml:"reverb-chorus"`
	}

	Device struct {
		Frequency  int `yaml:"frequency"`
		BufferSize int `yaml:"buffer-size"`
	}
)

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	if err := decode(defaultConfig, cfg); err != nil {
		panic(fmt.Errorf("failed to decode default config: %w", err))
	}
	return cfg
}

// Parse decodes data over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Backends, c.MIDI.Backend):
		return fmt.Errorf("midi.backend %q: %w", c.MIDI.Backend, ErrBackend)
	case c.MIDI.Polyphony <= 0:
		return fmt.Errorf("midi.polyphony %d: %w", c.MIDI.Polyphony, ErrRange)
	case c.Device.Frequency <= 0:
		return fmt.Errorf("device.frequency %d: %w", c.Device.Frequency, ErrRange)
	case c.Device.BufferSize <= 0:
		return fmt.Errorf("device.buffer-size %d: %w", c.Device.BufferSize, ErrRange)
	}
	return nil
}

// SoundfontPath returns the default soundfont path, honoring SoundfontEnv.
func (c *Config) SoundfontPath() string {
	if p := os.Getenv(SoundfontEnv); p != "" {
		return p
	}
	return c.MIDI.Soundfont
}
