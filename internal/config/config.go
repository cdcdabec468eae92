// SPDX-License-Identifier: EPL-2.0

// Package config loads the player configuration: an embedded default.ini,
// optionally overlaid by a user file, then by environment variables.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
	"github.com/ik5/audstream/stream"
)

//go:embed default.ini
var defaultConfig []byte

const (
	EnvBackend  = "AUDSTREAM_BACKEND"
	EnvLogLevel = "AUDSTREAM_LOG_LEVEL"
)

const (
	BackendOto     = "oto"
	BackendBeep    = "beep"
	BackendCapture = "capture"
)

type Config struct {
	Engine struct {
		Backend         string        `ini:"Backend"`
		SampleRate      int           `ini:"SampleRate"`
		Channels        int           `ini:"Channels"`
		BufferDuration  time.Duration `ini:"BufferDuration"`
		LowWater        int           `ini:"LowWater"`
		PollInterval    time.Duration `ini:"PollInterval"`
		ResampleQuality int           `ini:"ResampleQuality"`
	} `ini:"Engine"`
	Stream struct {
		BankCount         int  `ini:"BankCount"`
		BankSize          int  `ini:"BankSize"`
		ChunkSize         int  `ini:"ChunkSize"`
		MaxPendingBuffers int  `ini:"MaxPendingBuffers"`
		MemoryMap         bool `ini:"MemoryMap"`
	} `ini:"Stream"`
	Log struct {
		Level  string `ini:"Level"`
		Pretty bool   `ini:"Pretty"`
	} `ini:"Log"`
}

var loadOptions = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

// Load reads the defaults, then path if it is not empty, then the
// environment.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

// Default returns the embedded defaults without looking at the
// environment.
func Default() *Config {
	c, err := load("", func(string) (string, bool) { return "", false })
	if err != nil {
		panic(fmt.Sprintf("embedded default.ini: %v", err))
	}
	return c
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	sources := []any{}
	if path != "" {
		sources = append(sources, path)
	}

	f, err := ini.LoadSources(loadOptions, defaultConfig, sources...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading config: %w", audio.ErrInvalidInput, err)
	}

	var c Config
	if err := f.MapTo(&c); err != nil {
		return nil, fmt.Errorf("%w: mapping config: %w", audio.ErrInvalidInput, err)
	}

	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Engine.Backend = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	c.Engine.Backend = strings.ToLower(strings.TrimSpace(c.Engine.Backend))

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.Backend != BackendOto && e.Backend != BackendBeep && e.Backend != BackendCapture:
		return fmt.Errorf("%w: unknown backend %q", audio.ErrInvalidArgument, e.Backend)
	case e.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", audio.ErrInvalidArgument, e.SampleRate)
	case e.Channels < 1 || e.Channels > 8:
		return fmt.Errorf("%w: %d channels", audio.ErrInvalidArgument, e.Channels)
	case e.BufferDuration <= 0:
		return fmt.Errorf("%w: buffer duration %s", audio.ErrInvalidArgument, e.BufferDuration)
	case e.LowWater < 1:
		return fmt.Errorf("%w: low water %d", audio.ErrInvalidArgument, e.LowWater)
	case e.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval %s", audio.ErrInvalidArgument, e.PollInterval)
	case e.ResampleQuality < 1 || e.ResampleQuality > 64:
		return fmt.Errorf("%w: resample quality %d", audio.ErrInvalidArgument, e.ResampleQuality)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", audio.ErrInvalidArgument, c.Log.Level)
	}

	return c.StreamConfig().Validate()
}

// StreamConfig is the stream.Config template for new instances.
func (c *Config) StreamConfig() stream.Config {
	cfg := stream.DefaultConfig()
	cfg.BankCount = c.Stream.BankCount
	cfg.BankSize = c.Stream.BankSize
	cfg.ChunkSize = c.Stream.ChunkSize
	cfg.MaxPendingBuffers = c.Stream.MaxPendingBuffers
	return cfg
}

func (c *Config) CoreOptions() engine.CoreOptions {
	return engine.CoreOptions{
		LowWater:     c.Engine.LowWater,
		PollInterval: c.Engine.PollInterval,
	}
}

// WriteTo writes c in INI form.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	f := ini.Empty()
	if err := f.ReflectFrom(c); err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	return f.WriteTo(w)
}
