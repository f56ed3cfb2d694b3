package compaction

import "fmt"

// Default configuration values.
const (
	// DefaultRawContentLimit is the artifact content size in bytes below
	// which raw content is sent to the model instead of a summary.
	DefaultRawContentLimit = 8 * 1024

	// DefaultMaxSummaryAge is how many turns a summary may be reused
	// before it is refreshed even if the artifact version is unchanged.
	DefaultMaxSummaryAge = 10

	// DefaultSummaryMaxBytes caps the summary text the compactor will
	// accept from a summarizer; longer output is truncated.
	DefaultSummaryMaxBytes = 2 * 1024
)

// Config holds compactor configuration.
type Config struct {
	// RawContentLimit is the content size in bytes up to which raw
	// artifact content is preferred over a summary.
	// Default: DefaultRawContentLimit
	RawContentLimit int

	// MaxSummaryAge is the number of turns a version-matched summary may
	// be reused before being refreshed.
	// Default: DefaultMaxSummaryAge
	MaxSummaryAge int

	// SummaryMaxBytes caps accepted summary text length.
	// Default: DefaultSummaryMaxBytes
	SummaryMaxBytes int
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.RawContentLimit < 0 {
		return fmt.Errorf("RawContentLimit must be >= 0, got %d", c.RawContentLimit)
	}
	if c.MaxSummaryAge < 0 {
		return fmt.Errorf("MaxSummaryAge must be >= 0, got %d", c.MaxSummaryAge)
	}
	if c.SummaryMaxBytes < 0 {
		return fmt.Errorf("SummaryMaxBytes must be >= 0, got %d", c.SummaryMaxBytes)
	}
	return nil
}

// withDefaults returns a copy of the config with zero values replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.RawContentLimit == 0 {
		c.RawContentLimit = DefaultRawContentLimit
	}
	if c.MaxSummaryAge == 0 {
		c.MaxSummaryAge = DefaultMaxSummaryAge
	}
	if c.SummaryMaxBytes == 0 {
		c.SummaryMaxBytes = DefaultSummaryMaxBytes
	}
	return c
}
