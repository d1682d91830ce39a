package audio

import (
	"fmt"
	"math"
)

const DefaultSampleRate = 44100

// Config holds the settings read by the render goroutines. A Config is never
// modified after it is published; changes publish a new one.
type Config struct {
	SampleRate    int
	Envelope      bool
	Filter        bool
	Vibrato       bool
	Level         float64 // master level in dB
	Interpolation string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		Envelope:      true,
		Filter:        true,
		Vibrato:       true,
		Interpolation: InterpScalar,
	}
}

func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if _, ok := interpolators[c.Interpolation]; !ok {
		return fmt.Errorf("unknown interpolation %q", c.Interpolation)
	}
	return nil
}

func (c *Config) gain() float32 {
	return float32(math.Pow(10, c.Level/20.0))
}

func (c *Config) interpolator() interpolator {
	if in, ok := interpolators[c.Interpolation]; ok {
		return in
	}
	return scalar{}
}

// quickReleaseTicks is the release length used to silence voices on all
// notes off.
func (c *Config) quickReleaseTicks() int {
	return c.SampleRate / 100
}
