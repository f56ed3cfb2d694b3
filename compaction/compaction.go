package compaction

import (
	"context"
	"sync"

	"github.com/vibegamedev/vibegame/types"
)

// Placeholder is substituted for the artifact context when a summary is
// needed but summarization fails.
const Placeholder = "content present, summary unavailable"

// Summarizer is a stateless text-summarization capability: artifact
// content in, short natural-language digest out. Implementations must
// be safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, mode types.Mode, content string) (string, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, mode types.Mode, content string) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, mode types.Mode, content string) (string, error) {
	return f(ctx, mode, content)
}

// Summary is the last computed artifact digest, stamped with the
// artifact version it was computed against and aged in turns.
type Summary struct {
	Text            string
	ArtifactVersion int
	Age             int
}

// ArtifactContext is what the caller splices into the model input in
// place of the artifact.
type ArtifactContext struct {
	// Text is the raw content, a summary, or Placeholder.
	Text string

	// Summarized reports whether Text is a digest rather than the raw
	// content.
	Summarized bool
}

// Compactor maintains one summary per session and decides, per turn,
// whether the model sees raw artifact content or the summary.
type Compactor struct {
	summarizer Summarizer
	config     Config

	mu        sync.Mutex
	summaries map[string]*Summary
}

// NewCompactor returns a compactor using the given summarizer. A nil
// summarizer is allowed; summaries then always degrade to Placeholder.
func NewCompactor(summarizer Summarizer, config Config) (*Compactor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Compactor{
		summarizer: summarizer,
		config:     config.withDefaults(),
		summaries:  make(map[string]*Summary),
	}, nil
}

// Context returns the artifact context for the next model call.
//
// Content below the raw limit is passed through unchanged. Above it,
// the cached summary is reused when it was computed against the
// current version and is younger than the age threshold; otherwise the
// summarizer is invoked and the cache replaced. Summarization failure
// is non-fatal and yields Placeholder.
func (c *Compactor) Context(ctx context.Context, sessionID string, artifact *types.Artifact) ArtifactContext {
	if len(artifact.Content) <= c.config.RawContentLimit {
		return ArtifactContext{Text: artifact.Content}
	}

	c.mu.Lock()
	cached := c.summaries[sessionID]
	if cached != nil && cached.ArtifactVersion == artifact.Version && cached.Age < c.config.MaxSummaryAge {
		cached.Age++
		text := cached.Text
		c.mu.Unlock()
		return ArtifactContext{Text: text, Summarized: true}
	}
	c.mu.Unlock()

	text, err := c.summarize(ctx, artifact.Mode, artifact.Content)
	if err != nil {
		return ArtifactContext{Text: Placeholder, Summarized: true}
	}

	c.mu.Lock()
	c.summaries[sessionID] = &Summary{Text: text, ArtifactVersion: artifact.Version, Age: 1}
	c.mu.Unlock()

	return ArtifactContext{Text: text, Summarized: true}
}

// Summary returns the cached summary for a session, if any.
func (c *Compactor) Summary(sessionID string) *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.summaries[sessionID]; ok {
		copied := *s
		return &copied
	}
	return nil
}

// Forget drops the cached summary for a session. Called when a session
// is deleted.
func (c *Compactor) Forget(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries, sessionID)
}

func (c *Compactor) summarize(ctx context.Context, mode types.Mode, content string) (string, error) {
	if c.summarizer == nil {
		return "", ErrSummarizationUnavailable
	}
	text, err := c.summarizer.Summarize(ctx, mode, content)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrSummarizationUnavailable
	}
	if len(text) > c.config.SummaryMaxBytes {
		text = text[:c.config.SummaryMaxBytes]
	}
	return text, nil
}
