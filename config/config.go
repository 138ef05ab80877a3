// Package config loads host configuration for tempo applications from YAML.
//
// Configuration comes from one explicit source: a path the host passes in
// (usually a -config flag) or the TEMPO_CONFIG environment variable. There
// is no directory discovery and no layering of hidden overrides; what the
// file says, plus built-in defaults for what it omits, is the whole story.
// Duration fields are Go duration strings such as "16ms" or "1h".
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/tempo"
)

// EnvConfig names the environment variable Load reads the config path from
const EnvConfig = "TEMPO_CONFIG"

// Config is the root of the YAML file. Duration strings are parsed and
// checked by Validate; the typed values are then available from the
// TickInterval, FixedPeriod, WrapPeriod, and MaxDelta methods.
type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Time      TimeConfig      `yaml:"time"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Metronome MetronomeConfig `yaml:"metronome"`

	// parsed by Validate
	tickInterval time.Duration
	fixedPeriod  time.Duration
	wrapPeriod   time.Duration
	maxDelta     time.Duration
}

// LoopConfig shapes the scheduler
type LoopConfig struct {
	// TickInterval is the target spacing between scheduler ticks
	TickInterval string `yaml:"tick_interval"`
}

// TimeConfig shapes the shared Time resource
type TimeConfig struct {
	// FixedHz is the fixed-step rate in steps per second. Ignored when
	// FixedPeriod is set.
	FixedHz float64 `yaml:"fixed_hz"`

	// FixedPeriod is the fixed-step length as a duration string; takes
	// precedence over FixedHz when non-empty
	FixedPeriod string `yaml:"fixed_period"`

	// WrapPeriod is the wrapped-elapsed modulus; must be a positive whole
	// number of seconds
	WrapPeriod string `yaml:"wrap_period"`

	// RelativeSpeed scales virtual time against wall time
	RelativeSpeed float64 `yaml:"relative_speed"`

	// MaxDelta caps the virtual time applied per update; empty or "0"
	// disables the clamp
	MaxDelta string `yaml:"max_delta"`

	// StartPaused freezes virtual time from the first update on
	StartPaused bool `yaml:"start_paused"`
}

// RecorderConfig shapes per-tick snapshot recording
type RecorderConfig struct {
	// Capacity is the number of snapshots retained; 0 disables recording
	Capacity int `yaml:"capacity"`
}

// MetronomeConfig shapes the tempo-metronome demo
type MetronomeConfig struct {
	// BPM is beats per minute; one beat is one fixed period
	BPM int `yaml:"bpm"`

	// PitchHz is the blip frequency
	PitchHz float64 `yaml:"pitch_hz"`

	// Volume is a linear gain: 1 unity, 0 silent
	Volume float64 `yaml:"volume"`
}

// Default returns the built-in configuration: 16ms ticks, 60 Hz fixed
// steps, one hour wrapping, 333ms clamp, normal speed, 256 recorded
// snapshots.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			TickInterval: "16ms",
		},
		Time: TimeConfig{
			FixedHz:       60,
			WrapPeriod:    "1h",
			RelativeSpeed: 1.0,
			MaxDelta:      "333ms",
		},
		Recorder: RecorderConfig{
			Capacity: 256,
		},
		Metronome: MetronomeConfig{
			BPM:     120,
			PitchHz: 880,
			Volume:  1.0,
		},
	}
}

// Load reads the file named by the TEMPO_CONFIG environment variable.
// It fails when the variable is unset; the caller decides whether running
// on defaults is acceptable instead.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		return nil, fmt.Errorf("config: %s is not set; pass an explicit path or export it", EnvConfig)
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and validates the result
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve picks the configuration source: an explicit path when non-empty,
// else the TEMPO_CONFIG environment variable when set, else the built-in
// defaults. A command line always wins over the environment.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if os.Getenv(EnvConfig) != "" {
		return Load()
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate parses the duration strings and checks every field against the
// same rules the core setters enforce, joining all failures into one error
func (c *Config) Validate() error {
	var errs []error

	c.tickInterval = 0
	if c.Loop.TickInterval == "" {
		errs = append(errs, errors.New("loop.tick_interval: required"))
	} else if d, err := time.ParseDuration(c.Loop.TickInterval); err != nil {
		errs = append(errs, fmt.Errorf("loop.tick_interval: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_interval: must be positive, got %v", d))
	} else {
		c.tickInterval = d
	}

	c.fixedPeriod = 0
	if c.Time.FixedPeriod != "" {
		if d, err := time.ParseDuration(c.Time.FixedPeriod); err != nil {
			errs = append(errs, fmt.Errorf("time.fixed_period: %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("time.fixed_period: %w, got %v", tempo.ErrInvalidFixedPeriod, d))
		} else {
			c.fixedPeriod = d
		}
	} else if c.Time.FixedHz > 0 && !math.IsInf(c.Time.FixedHz, 1) {
		c.fixedPeriod = time.Duration(float64(time.Second) / c.Time.FixedHz)
	} else {
		errs = append(errs, fmt.Errorf("time.fixed_hz: must be a positive finite rate, got %v", c.Time.FixedHz))
	}

	c.wrapPeriod = 0
	if c.Time.WrapPeriod == "" {
		errs = append(errs, errors.New("time.wrap_period: required"))
	} else if d, err := time.ParseDuration(c.Time.WrapPeriod); err != nil {
		errs = append(errs, fmt.Errorf("time.wrap_period: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("time.wrap_period: %w, got %v", tempo.ErrZeroWrapPeriod, d))
	} else if d%time.Second != 0 {
		errs = append(errs, fmt.Errorf("time.wrap_period: %w, got %v", tempo.ErrFractionalWrapPeriod, d))
	} else {
		c.wrapPeriod = d
	}

	if math.IsNaN(c.Time.RelativeSpeed) || math.IsInf(c.Time.RelativeSpeed, 0) || c.Time.RelativeSpeed < 0 {
		errs = append(errs, fmt.Errorf("time.relative_speed: %w, got %v", tempo.ErrInvalidSpeed, c.Time.RelativeSpeed))
	}

	c.maxDelta = 0
	if c.Time.MaxDelta != "" {
		if d, err := time.ParseDuration(c.Time.MaxDelta); err != nil {
			errs = append(errs, fmt.Errorf("time.max_delta: %w", err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("time.max_delta: must not be negative, got %v", d))
		} else {
			c.maxDelta = d
		}
	}

	if c.Recorder.Capacity < 0 {
		errs = append(errs, fmt.Errorf("recorder.capacity: must not be negative, got %d", c.Recorder.Capacity))
	}

	if c.Metronome.BPM <= 0 {
		errs = append(errs, fmt.Errorf("metronome.bpm: must be positive, got %d", c.Metronome.BPM))
	}
	if c.Metronome.PitchHz <= 0 || math.IsNaN(c.Metronome.PitchHz) || math.IsInf(c.Metronome.PitchHz, 1) {
		errs = append(errs, fmt.Errorf("metronome.pitch_hz: must be positive and finite, got %v", c.Metronome.PitchHz))
	}
	if math.IsNaN(c.Metronome.Volume) || c.Metronome.Volume < 0 {
		errs = append(errs, fmt.Errorf("metronome.volume: must not be negative, got %v", c.Metronome.Volume))
	}

	return errors.Join(errs...)
}

// TickInterval returns the parsed scheduler tick spacing.
// Valid after a successful Validate.
func (c *Config) TickInterval() time.Duration {
	return c.tickInterval
}

// FixedPeriod returns the parsed fixed-step length
func (c *Config) FixedPeriod() time.Duration {
	return c.fixedPeriod
}

// WrapPeriod returns the parsed wrapped-elapsed modulus
func (c *Config) WrapPeriod() time.Duration {
	return c.wrapPeriod
}

// MaxDelta returns the parsed per-update clamp, zero when disabled
func (c *Config) MaxDelta() time.Duration {
	return c.maxDelta
}

// BeatPeriod returns one metronome beat at the configured BPM.
// Valid after a successful Validate.
func (c *Config) BeatPeriod() time.Duration {
	return time.Duration(int64(time.Minute) / int64(c.Metronome.BPM))
}

// Apply pushes the time-related settings into t through its public setters.
// Validate must have succeeded; setter rejections come back wrapped with
// the offending field name.
func (c *Config) Apply(t *tempo.Time) error {
	if err := t.SetWrapPeriod(c.wrapPeriod); err != nil {
		return fmt.Errorf("time.wrap_period: %w", err)
	}
	if err := t.SetRelativeSpeed64(c.Time.RelativeSpeed); err != nil {
		return fmt.Errorf("time.relative_speed: %w", err)
	}
	if err := t.SetFixedPeriod(c.fixedPeriod); err != nil {
		return fmt.Errorf("time.fixed_period: %w", err)
	}
	t.SetMaxDelta(c.maxDelta)

	if c.Time.StartPaused {
		t.Pause()
	} else {
		t.Unpause()
	}
	return nil
}
