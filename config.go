package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfig = `
{
	"watchConfig": true,
	"initialFrequency": 0,
	"audio": {
		"backend": "portaudio",
		"sampleRate": 0,
		"channels": 1,
		"format": "float32",
		"framesPerBuffer": 0
	},
	"keys": "awsedftgyhujk",
	"notes": ["C4", "C#4", "D4", "D#4", "E4", "F4", "F#4", "G4", "G#4", "A4", "A#4", "B4", "C5"],
	"frequencies": {
		"C4": 261.63,
		"C#4": 277.18,
		"D4": 293.66,
		"D#4": 311.13,
		"E4": 329.63,
		"F4": 349.23,
		"F#4": 369.99,
		"G4": 392.00,
		"G#4": 415.30,
		"A4": 440.00,
		"A#4": 466.16,
		"B4": 493.88,
		"C5": 523.25
	},
	"glide": {
		"enabled": true,
		"ratio": 0.01,
		"everySamples": 64
	}
}
`

const (
	FormatFloat32 = "float32"
	FormatInt16   = "int16"
	FormatInt32   = "int32"
	FormatUint8   = "uint8"
)

type AudioConfig struct {
	Backend         string  `json:"backend" yaml:"backend"`
	SampleRate      float64 `json:"sampleRate" yaml:"sampleRate"`
	Channels        int     `json:"channels" yaml:"channels"`
	Format          string  `json:"format" yaml:"format"`
	FramesPerBuffer int     `json:"framesPerBuffer" yaml:"framesPerBuffer"`
}

type GlideConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	Ratio        float64 `json:"ratio" yaml:"ratio"`
	EverySamples int     `json:"everySamples" yaml:"everySamples"`
}

type StaticConfig struct {
	WatchConfig      bool        `json:"watchConfig" yaml:"watchConfig"`
	InitialFrequency float64     `json:"initialFrequency" yaml:"initialFrequency"`
	Audio            AudioConfig `json:"audio" yaml:"audio"`
}

// DynamicConfig is the part of the config that may change while playing.
type DynamicConfig struct {
	Keys        string             `json:"keys" yaml:"keys"`
	Notes       []string           `json:"notes" yaml:"notes"`
	Frequencies map[string]float64 `json:"frequencies" yaml:"frequencies"`
	Glide       GlideConfig        `json:"glide" yaml:"glide"`
}

type Config struct {
	StaticConfig  `yaml:",inline"`
	DynamicConfig `yaml:",inline"`
}

func isYAML(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func parseConfig(data []byte, asYAML bool) (*Config, error) {
	var c Config
	if asYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("unmarshalling yaml: %w", err)
		}
		return &c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}
	return &c, nil
}

func defaultConfigFor(p string) ([]byte, error) {
	if !isYAML(p) {
		return []byte(defaultConfig), nil
	}
	c, err := parseConfig([]byte(defaultConfig), false)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(c)
}

// ReadConfig reads the config at p, writing the default config there first
// if the file does not exist. Files ending in .yaml or .yml are YAML,
// anything else JSON.
func ReadConfig(p string) (*Config, error) {
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		data, err := defaultConfigFor(p)
		if err != nil {
			return nil, fmt.Errorf("can't render defaultConfig: %w", err)
		}
		err = os.WriteFile(p, data, 0644)
		if err != nil {
			return nil, fmt.Errorf("can't write defaultConfig: %w", err)
		}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	return parseConfig(data, isYAML(p))
}

// Validate checks the whole config so nothing can fail after audio starts.
func (c *Config) Validate() error {
	if err := c.Audio.validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if !validFrequency(c.InitialFrequency) {
		return fmt.Errorf("initialFrequency: %w", ErrFrequency)
	}
	if _, err := c.Mapping(); err != nil {
		return err
	}
	return nil
}

func (a AudioConfig) validate() error {
	sink, ok := sinks[a.Backend]
	if !ok {
		return fmt.Errorf("unknown backend: %q", a.Backend)
	}
	if a.SampleRate < 0 || math.IsNaN(a.SampleRate) || math.IsInf(a.SampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrSampleRate, a.SampleRate)
	}
	if a.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", a.Channels)
	}
	if a.FramesPerBuffer < 0 {
		return fmt.Errorf("framesPerBuffer must not be negative, got %d", a.FramesPerBuffer)
	}
	switch a.Format {
	case FormatFloat32, FormatInt16, FormatInt32, FormatUint8:
	default:
		return fmt.Errorf("unknown format: %q", a.Format)
	}
	if !sink.supports(a.Format) {
		return fmt.Errorf("backend %s does not support format %s", a.Backend, a.Format)
	}
	return nil
}

// Glide converts the config to the oscillator's glide. A disabled glide
// or a zero ratio retargets instantly.
func (g GlideConfig) Glide() (Glide, error) {
	if math.IsNaN(g.Ratio) || g.Ratio < 0 || g.Ratio > 1 {
		return Glide{}, fmt.Errorf("glide ratio must be in [0, 1], got %v", g.Ratio)
	}
	if g.EverySamples < 0 {
		return Glide{}, fmt.Errorf("glide everySamples must not be negative, got %d", g.EverySamples)
	}
	if !g.Enabled || g.Ratio == 0 {
		return Glide{Ratio: 1, Every: 1}, nil
	}
	every := g.EverySamples
	if every == 0 {
		every = 1
	}
	return Glide{Ratio: g.Ratio, Every: every}, nil
}

func (c *DynamicConfig) Mapping() (*Mapping, error) {
	km, err := NewKeymap(c.Keys, c.Notes, c.Frequencies)
	if err != nil {
		return nil, fmt.Errorf("keymap: %w", err)
	}
	g, err := c.Glide.Glide()
	if err != nil {
		return nil, err
	}
	return &Mapping{Keymap: km, Glide: g}, nil
}
