package model

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/vibegamedev/vibegame/compaction"
	"github.com/vibegamedev/vibegame/streaming"
	"github.com/vibegamedev/vibegame/toolcall"
	"github.com/vibegamedev/vibegame/types"
)

// DefaultMaxTokens is the response token limit used when a request does
// not set one.
const DefaultMaxTokens = 4096

// AnthropicClient implements Client on the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient wraps an Anthropic SDK client for the given model.
func NewAnthropicClient(client *anthropic.Client, model string) *AnthropicClient {
	return &AnthropicClient{client: client, model: model}
}

// Stream starts a streaming model invocation for the request.
func (c *AnthropicClient) Stream(ctx context.Context, req Request) (Stream, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  buildMessages(req.Messages),
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = DefaultMaxTokens
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if tools := buildTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	return &anthropicStream{
		stream: c.client.Messages.NewStreaming(ctx, params),
		acc:    streaming.NewAccumulator(),
	}, nil
}

// anthropicStream adapts the SDK's SSE stream to the Stream interface,
// draining the accumulator's ready events one at a time.
type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	acc     *streaming.Accumulator
	pending []streaming.Event
}

func (s *anthropicStream) Recv() (streaming.Event, error) {
	for len(s.pending) == 0 {
		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		s.pending = s.acc.Process(s.stream.Current())
	}

	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

func buildMessages(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if msg.Role == types.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params = append(params, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Text)},
		})
	}
	return params
}

func buildTools(schemas []toolcall.Schema) []anthropic.ToolUnionParam {
	if len(schemas) == 0 {
		return nil
	}

	tools := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, schema := range schemas {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: propertiesToMap(schema.Properties),
		}
		if len(schema.Required) > 0 {
			inputSchema.Required = schema.Required
		}

		toolParam := anthropic.ToolParam{
			Name:        schema.Name,
			Description: anthropic.String(schema.Description),
			InputSchema: inputSchema,
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return tools
}

func propertiesToMap(props map[string]toolcall.PropertyDef) map[string]any {
	out := make(map[string]any, len(props))
	for name, def := range props {
		out[name] = propertyToMap(def)
	}
	return out
}

func propertyToMap(def toolcall.PropertyDef) map[string]any {
	m := map[string]any{"type": def.Type}
	if def.Description != "" {
		m["description"] = def.Description
	}
	if len(def.Enum) > 0 {
		m["enum"] = def.Enum
	}
	if def.Items != nil {
		m["items"] = propertyToMap(*def.Items)
	}
	if len(def.Properties) > 0 {
		m["properties"] = propertiesToMap(def.Properties)
	}
	if len(def.Required) > 0 {
		m["required"] = def.Required
	}
	return m
}

// AnthropicSummarizer implements compaction.Summarizer with a single
// non-streaming completion call.
type AnthropicSummarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicSummarizer creates a summarizer on the given model.
func NewAnthropicSummarizer(client *anthropic.Client, model string) *AnthropicSummarizer {
	return &AnthropicSummarizer{client: client, model: model, maxTokens: 1024}
}

// Summarize produces a short digest of the artifact content. Failures
// are wrapped in compaction.ErrSummarizationUnavailable so the caller's
// placeholder fallback triggers.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, mode types.Mode, content string) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: compaction.SummarizationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(compaction.BuildSummarizationUserPrompt(mode, content))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", compaction.ErrSummarizationUnavailable, err)
	}

	text := extractText(msg)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", compaction.ErrSummarizationUnavailable)
	}
	return text, nil
}

// titleSystemPrompt asks for a short session title from the first user
// message.
const titleSystemPrompt = `Generate a short title (at most six words) for a game-building session based on the user's first request. Respond with the title only: no quotes, no punctuation at the end.`

// AnthropicTitleGenerator produces a session title with one stateless
// completion call.
type AnthropicTitleGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicTitleGenerator creates a title generator on the given
// model.
func NewAnthropicTitleGenerator(client *anthropic.Client, model string) *AnthropicTitleGenerator {
	return &AnthropicTitleGenerator{client: client, model: model}
}

// Title derives a session title from the first user message.
func (g *AnthropicTitleGenerator) Title(ctx context.Context, mode types.Mode, firstUserMessage string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 64,
		System: []anthropic.TextBlockParam{
			{Text: titleSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Mode: %s\nFirst request: %s", mode, firstUserMessage))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("title generation: %w", err)
	}

	title := strings.TrimSpace(extractText(msg))
	if title == "" {
		return "", fmt.Errorf("title generation: empty response")
	}
	return title, nil
}

func extractText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}
