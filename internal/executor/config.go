package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/ygrebnov/errorc"
)

const (
	// DefaultMaxConcurrency is the pool capacity used when none is configured
	DefaultMaxConcurrency = 20

	// DefaultPollInterval is the control loop sleep between ticks with no completions
	DefaultPollInterval = 200 * time.Millisecond

	// DefaultMaxIdleTime is the stall window used when none is configured
	DefaultMaxIdleTime = 120 * time.Second

	// DefaultSampleChars bounds the pending-item sample shown in progress and stall reports
	DefaultSampleChars = 240

	// MaxItemDisplay is the maximum length of a single item's display string
	MaxItemDisplay = 60
)

// ErrInvalidConfig is returned when an engine configuration fails validation
var ErrInvalidConfig = errors.New("invalid executor configuration")

// Config holds the tunables of an execution run.
// The zero value is valid and resolves to the defaults.
type Config struct {
	// MaxConcurrency is the number of units of work allowed to run at once
	MaxConcurrency int `yaml:"maxConcurrency,omitempty" json:"maxConcurrency,omitempty" mapstructure:"maxConcurrency"`

	// PollInterval is how long the control loop sleeps when a tick harvested nothing
	PollInterval time.Duration `yaml:"pollInterval,omitempty" json:"pollInterval,omitempty" mapstructure:"pollInterval"`

	// MaxIdleTime is how long the run may go without any completion while work is pending
	MaxIdleTime time.Duration `yaml:"maxIdleTime,omitempty" json:"maxIdleTime,omitempty" mapstructure:"maxIdleTime"`

	// FailFast aborts the run on the first failed item instead of recording it and continuing
	FailFast bool `yaml:"failFast,omitempty" json:"failFast,omitempty" mapstructure:"failFast"`

	// SampleChars bounds the length of the pending-item sample
	SampleChars int `yaml:"sampleChars,omitempty" json:"sampleChars,omitempty" mapstructure:"sampleChars"`
}

// DefaultConfig returns a configuration with every field set to its default
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		PollInterval:   DefaultPollInterval,
		MaxIdleTime:    DefaultMaxIdleTime,
		SampleChars:    DefaultSampleChars,
	}
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
// Negative values are left alone so Validate can reject them.
func (c Config) WithDefaults() Config {
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = DefaultMaxIdleTime
	}
	if c.SampleChars == 0 {
		c.SampleChars = DefaultSampleChars
	}
	return c
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	switch {
	case c.MaxConcurrency <= 0:
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("maxConcurrency must be > 0, got %d", c.MaxConcurrency)))
	case c.PollInterval <= 0:
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("pollInterval must be > 0, got %s", c.PollInterval)))
	case c.MaxIdleTime <= 0:
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("maxIdleTime must be > 0, got %s", c.MaxIdleTime)))
	case c.MaxIdleTime < c.PollInterval:
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("maxIdleTime must not be shorter than pollInterval (%s < %s)", c.MaxIdleTime, c.PollInterval)))
	case c.SampleChars < 0:
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("sampleChars must be >= 0, got %d", c.SampleChars)))
	}
	return nil
}
