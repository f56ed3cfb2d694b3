package compaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vibegamedev/vibegame/types"
)

// countingSummarizer records how many times it was invoked.
type countingSummarizer struct {
	calls int
	text  string
	err   error
}

func (s *countingSummarizer) Summarize(ctx context.Context, mode types.Mode, content string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func largeArtifact(version int) *types.Artifact {
	return &types.Artifact{
		Mode:    types.ModeJavascript,
		Content: strings.Repeat("x", 100),
		Version: version,
	}
}

func newTestCompactor(t *testing.T, s Summarizer) *Compactor {
	t.Helper()
	c, err := NewCompactor(s, Config{RawContentLimit: 50, MaxSummaryAge: 3})
	if err != nil {
		t.Fatalf("NewCompactor: %v", err)
	}
	return c
}

func TestSmallContentPassedThroughRaw(t *testing.T) {
	summarizer := &countingSummarizer{text: "a game"}
	c := newTestCompactor(t, summarizer)

	artifact := &types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 0}
	got := c.Context(context.Background(), "s1", artifact)

	if got.Summarized {
		t.Error("expected raw content for small artifact")
	}
	if got.Text != artifact.Content {
		t.Errorf("expected raw content, got %q", got.Text)
	}
	if summarizer.calls != 0 {
		t.Errorf("summarizer invoked %d times for small content", summarizer.calls)
	}
}

func TestSummaryReusedWhileVersionMatches(t *testing.T) {
	summarizer := &countingSummarizer{text: "a platformer with one enemy"}
	c := newTestCompactor(t, summarizer)
	ctx := context.Background()

	for range 3 {
		got := c.Context(ctx, "s1", largeArtifact(5))
		if !got.Summarized || got.Text != summarizer.text {
			t.Fatalf("unexpected context: %+v", got)
		}
	}
	if summarizer.calls != 1 {
		t.Errorf("expected 1 summarizer call, got %d", summarizer.calls)
	}
}

func TestSummaryRefreshedOnVersionAdvance(t *testing.T) {
	summarizer := &countingSummarizer{text: "summary"}
	c := newTestCompactor(t, summarizer)
	ctx := context.Background()

	c.Context(ctx, "s1", largeArtifact(5))
	c.Context(ctx, "s1", largeArtifact(6))

	if summarizer.calls != 2 {
		t.Errorf("expected refresh on version advance, got %d calls", summarizer.calls)
	}
	if s := c.Summary("s1"); s == nil || s.ArtifactVersion != 6 {
		t.Errorf("expected cached summary stamped with version 6, got %+v", s)
	}
}

func TestSummaryRefreshedOnAge(t *testing.T) {
	summarizer := &countingSummarizer{text: "summary"}
	c := newTestCompactor(t, summarizer)
	ctx := context.Background()

	// MaxSummaryAge is 3: first call computes, next two reuse, fourth
	// refreshes even though the version never moved.
	for range 4 {
		c.Context(ctx, "s1", largeArtifact(5))
	}
	if summarizer.calls != 2 {
		t.Errorf("expected age-triggered refresh, got %d calls", summarizer.calls)
	}
}

func TestSummarizationFailureYieldsPlaceholder(t *testing.T) {
	summarizer := &countingSummarizer{err: errors.New("model overloaded")}
	c := newTestCompactor(t, summarizer)

	got := c.Context(context.Background(), "s1", largeArtifact(1))
	if got.Text != Placeholder {
		t.Errorf("expected placeholder, got %q", got.Text)
	}
	if !got.Summarized {
		t.Error("placeholder must be marked as summarized")
	}
	if c.Summary("s1") != nil {
		t.Error("failed summarization must not populate the cache")
	}
}

func TestNilSummarizerYieldsPlaceholder(t *testing.T) {
	c := newTestCompactor(t, nil)

	got := c.Context(context.Background(), "s1", largeArtifact(1))
	if got.Text != Placeholder {
		t.Errorf("expected placeholder, got %q", got.Text)
	}
}

func TestSessionsCachedIndependently(t *testing.T) {
	summarizer := &countingSummarizer{text: "summary"}
	c := newTestCompactor(t, summarizer)
	ctx := context.Background()

	c.Context(ctx, "s1", largeArtifact(5))
	c.Context(ctx, "s2", largeArtifact(5))
	if summarizer.calls != 2 {
		t.Errorf("expected one call per session, got %d", summarizer.calls)
	}

	c.Forget("s1")
	if c.Summary("s1") != nil {
		t.Error("Forget did not drop the cached summary")
	}
	if c.Summary("s2") == nil {
		t.Error("Forget dropped the wrong session")
	}
}

func TestOverlongSummaryTruncated(t *testing.T) {
	summarizer := &countingSummarizer{text: strings.Repeat("y", 5000)}
	c, err := NewCompactor(summarizer, Config{RawContentLimit: 50, MaxSummaryAge: 3, SummaryMaxBytes: 100})
	if err != nil {
		t.Fatalf("NewCompactor: %v", err)
	}

	got := c.Context(context.Background(), "s1", largeArtifact(1))
	if len(got.Text) != 100 {
		t.Errorf("expected summary truncated to 100 bytes, got %d", len(got.Text))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "zero config valid", config: Config{}},
		{name: "negative raw limit", config: Config{RawContentLimit: -1}, wantErr: true},
		{name: "negative age", config: Config{MaxSummaryAge: -1}, wantErr: true},
		{name: "negative summary cap", config: Config{SummaryMaxBytes: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
