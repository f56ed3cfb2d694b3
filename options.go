package vibegame

import (
	"log"
	"time"

	"github.com/vibegamedev/vibegame/compaction"
	"github.com/vibegamedev/vibegame/hooks"
	"github.com/vibegamedev/vibegame/model"
)

// Option is a functional option for configuring an Engine
type Option func(*internalConfig) error

// WithMaxTokens sets the maximum number of tokens per model response
func WithMaxTokens(n int) Option {
	return func(c *internalConfig) error {
		c.maxTokens = n
		return nil
	}
}

// WithTemperature sets the temperature for sampling (0.0 to 1.0)
func WithTemperature(t float64) Option {
	return func(c *internalConfig) error {
		c.temperature = &t
		return nil
	}
}

// WithTurnTimeout sets the wall-clock budget for a single turn. A turn
// exceeding it is force-transitioned to the failed state; artifact
// mutations already committed are kept.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *internalConfig) error {
		if d <= 0 {
			return NewSessionError("WithTurnTimeout", ErrInvalidConfig).
				WithContext("reason", "timeout must be positive")
		}
		c.turnTimeout = d
		return nil
	}
}

// WithCheckpointLabelLimit sets the maximum rune length of checkpoint
// labels derived from user instructions
func WithCheckpointLabelLimit(limit int) Option {
	return func(c *internalConfig) error {
		if limit <= 0 {
			return NewSessionError("WithCheckpointLabelLimit", ErrInvalidConfig).
				WithContext("reason", "limit must be positive")
		}
		c.checkpointLabelLimit = limit
		return nil
	}
}

// WithRawContentLimit sets the artifact content size in bytes up to
// which raw content is sent to the model instead of a summary
func WithRawContentLimit(bytes int) Option {
	return func(c *internalConfig) error {
		c.compaction.RawContentLimit = bytes
		return nil
	}
}

// WithSummaryMaxAge sets how many turns an artifact summary may be
// reused before it is refreshed
func WithSummaryMaxAge(turns int) Option {
	return func(c *internalConfig) error {
		c.compaction.MaxSummaryAge = turns
		return nil
	}
}

// WithSummarizerModel sets the model used for artifact summaries and
// session titles
func WithSummarizerModel(m string) Option {
	return func(c *internalConfig) error {
		c.summarizerModel = m
		return nil
	}
}

// WithModelClient injects a model client, replacing the Anthropic
// client for turn streaming
func WithModelClient(client model.Client) Option {
	return func(c *internalConfig) error {
		c.modelClient = client
		return nil
	}
}

// WithSummarizer injects a summarizer, replacing the Anthropic-backed
// one
func WithSummarizer(s compaction.Summarizer) Option {
	return func(c *internalConfig) error {
		c.summarizer = s
		return nil
	}
}

// WithTitleGenerator injects a title generator, replacing the
// Anthropic-backed one
func WithTitleGenerator(g TitleGenerator) Option {
	return func(c *internalConfig) error {
		c.titles = g
		return nil
	}
}

// WithHooks replaces the engine's hook registry
func WithHooks(r *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if r == nil {
			return NewSessionError("WithHooks", ErrInvalidConfig).
				WithContext("reason", "registry must not be nil")
		}
		c.hooks = r
		return nil
	}
}

// WithLogger replaces the engine's logger
func WithLogger(logger *log.Logger) Option {
	return func(c *internalConfig) error {
		c.logger = logger
		return nil
	}
}
