// Package config loads the transport defaults. The defaults are embedded in
// the binary and can be overridden per user with a transport.yml in the
// zrythm directory under os.UserConfigDir().
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Transport Transport
		Metronome Metronome
		YmlError  error `yaml:"-"`
	}

	Transport struct {
		SampleRate int
		BlockSize  int
		// CountinBars is the number of bars the metronome counts in before
		// rolling starts.
		CountinBars int
		// PrerollBars is how far back the playhead jumps when recording
		// starts.
		PrerollBars        int
		ReturnToCueOnPause bool
		// GridDivision is the number of snap points per beat.
		GridDivision int
	}

	Metronome struct {
		Volume float32
		// Accent is the gain of the first beat of a bar relative to the
		// other beats.
		Accent  float32
		ClickMs int
	}
)

var ErrInvalidConfig = errors.New("invalid config")

//go:embed transport.yml
var defaultConfigYaml []byte

// Default returns the embedded defaults.
func Default() Config {
	var c Config
	if err := yaml.UnmarshalStrict(defaultConfigYaml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Parse decodes b on top of the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Default(), err
	}
	if err := c.Validate(); err != nil {
		return Default(), err
	}
	return c, nil
}

// ReadFile reads the config file at path. A missing file is not an error and
// yields the defaults, with exists set to false.
func ReadFile(path string) (c Config, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return Default(), false, err
	}
	c, err = Parse(b)
	return c, true, err
}

// UserPath returns the path of the per user config file.
func UserPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "zrythm", "transport.yml"), nil
}

// Make returns the defaults merged with the user's config file. A broken
// user file does not prevent startup; the defaults are used and the error is
// kept in YmlError.
func Make() Config {
	path, err := UserPath()
	if err != nil {
		return Default()
	}
	c, exists, err := ReadFile(path)
	if exists && err != nil {
		c = Default()
		c.YmlError = fmt.Errorf("%s: %w", path, err)
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.Transport.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.Transport.SampleRate)
	case c.Transport.BlockSize <= 0:
		return fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, c.Transport.BlockSize)
	case c.Transport.CountinBars < 0, c.Transport.PrerollBars < 0:
		return fmt.Errorf("%w: countin and preroll bars cannot be negative", ErrInvalidConfig)
	case c.Transport.GridDivision <= 0:
		return fmt.Errorf("%w: grid division must be positive, got %d", ErrInvalidConfig, c.Transport.GridDivision)
	case c.Metronome.Volume < 0 || c.Metronome.Volume > 1:
		return fmt.Errorf("%w: metronome volume must be within [0, 1], got %v", ErrInvalidConfig, c.Metronome.Volume)
	case c.Metronome.Accent < 0:
		return fmt.Errorf("%w: metronome accent cannot be negative, got %v", ErrInvalidConfig, c.Metronome.Accent)
	case c.Metronome.ClickMs <= 0:
		return fmt.Errorf("%w: click length must be positive, got %d", ErrInvalidConfig, c.Metronome.ClickMs)
	}
	return nil
}
