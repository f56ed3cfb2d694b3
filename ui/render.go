package ui

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vibegamedev/vibegame/types"
)

// renderer converts stored messages into display-ready HTML.
type renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func newRenderer() *renderer {
	return &renderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

// RenderMarkdown converts untrusted markdown to sanitized HTML.
func (r *renderer) RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("ui: render markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// messageView is a message prepared for the transcript template.
type messageView struct {
	Role      types.Role
	HTML      template.HTML
	Truncated bool
	ToolCalls []types.ToolCallRecord
}

// renderMessages prepares a transcript for display. User and tool text
// is escaped verbatim; assistant text is rendered as markdown.
func (r *renderer) renderMessages(messages []*types.Message) ([]messageView, error) {
	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		view := messageView{
			Role:      msg.Role,
			Truncated: msg.Truncated,
			ToolCalls: msg.ToolCalls,
		}
		if msg.Role == types.RoleAssistant {
			html, err := r.RenderMarkdown(msg.Text)
			if err != nil {
				return nil, err
			}
			view.HTML = html
		} else {
			view.HTML = template.HTML(template.HTMLEscapeString(msg.Text))
		}
		views = append(views, view)
	}
	return views, nil
}
