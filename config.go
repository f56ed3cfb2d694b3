package vibegame

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/vibegamedev/vibegame/checkpoint"
	"github.com/vibegamedev/vibegame/compaction"
	"github.com/vibegamedev/vibegame/hooks"
	"github.com/vibegamedev/vibegame/model"
	"github.com/vibegamedev/vibegame/types"
)

// Default engine parameters.
const (
	// DefaultTurnTimeout is the wall-clock budget for a single turn.
	DefaultTurnTimeout = 2 * time.Minute

	// DefaultSummarizerModel is the model used for artifact summaries
	// and session titles unless overridden.
	DefaultSummarizerModel = "claude-3-5-haiku-20241022"
)

// Config holds the required configuration for an engine.
// The storage backend is passed separately to New().
//
// Example:
//
//	client := anthropic.NewClient()
//	engine, _ := vibegame.New(store, vibegame.Config{
//	    Client: &client,
//	    Model:  "claude-sonnet-4-5-20250929",
//	})
type Config struct {
	// Client is the Anthropic API client (required unless a model client
	// is injected with WithModelClient)
	Client *anthropic.Client

	// Model is the model ID for turn streaming (required with Client)
	Model string
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Client != nil && c.Model == "" {
		return fmt.Errorf("%w: Model is required", ErrInvalidConfig)
	}
	return nil
}

// TitleGenerator produces a short session title from the first user
// message. Stateless, one call per session.
type TitleGenerator interface {
	Title(ctx context.Context, mode types.Mode, firstUserMessage string) (string, error)
}

// internalConfig holds the full engine configuration including optional
// parameters
type internalConfig struct {
	// Required from Config
	client *anthropic.Client
	model  string

	// Optional parameters
	maxTokens            int
	temperature          *float64
	turnTimeout          time.Duration
	checkpointLabelLimit int
	summarizerModel      string
	compaction           compaction.Config

	// Injected collaborators, built from the Anthropic client when nil
	modelClient model.Client
	summarizer  compaction.Summarizer
	titles      TitleGenerator

	hooks  *hooks.Registry
	logger *log.Logger
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	return &internalConfig{
		client: cfg.Client,
		model:  cfg.Model,

		// Defaults
		maxTokens:            model.DefaultMaxTokens,
		turnTimeout:          DefaultTurnTimeout,
		checkpointLabelLimit: checkpoint.DefaultLabelLimit,
		summarizerModel:      DefaultSummarizerModel,

		hooks:  hooks.NewRegistry(),
		logger: log.Default(),
	}
}

// finalize fills in collaborators not set by options, building them on
// the Anthropic client.
func (c *internalConfig) finalize() error {
	if c.modelClient == nil {
		if c.client == nil {
			return fmt.Errorf("%w: an Anthropic client or a model client is required", ErrInvalidConfig)
		}
		c.modelClient = model.NewAnthropicClient(c.client, c.model)
	}
	if c.summarizer == nil && c.client != nil {
		c.summarizer = model.NewAnthropicSummarizer(c.client, c.summarizerModel)
	}
	if c.titles == nil && c.client != nil {
		c.titles = model.NewAnthropicTitleGenerator(c.client, c.summarizerModel)
	}
	return nil
}
