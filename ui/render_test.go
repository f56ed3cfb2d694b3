package ui

import (
	"strings"
	"testing"

	"github.com/vibegamedev/vibegame/types"
)

func TestRenderMarkdownSanitizesHTML(t *testing.T) {
	r := newRenderer()

	html, err := r.RenderMarkdown("**bold** and <script>alert('x')</script>")
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}

	out := string(html)
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("Expected markdown emphasis in output, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected script tag to be stripped, got %q", out)
	}
}

func TestRenderMarkdownTables(t *testing.T) {
	r := newRenderer()

	src := "| a | b |\n|---|---|\n| 1 | 2 |"
	html, err := r.RenderMarkdown(src)
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if !strings.Contains(string(html), "<table>") {
		t.Errorf("Expected GFM table in output, got %q", html)
	}
}

func TestRenderMessagesEscapesUserText(t *testing.T) {
	r := newRenderer()

	views, err := r.renderMessages([]*types.Message{
		{Role: types.RoleUser, Text: "add a <b>coin</b>"},
		{Role: types.RoleAssistant, Text: "Done, **coin** added."},
	})
	if err != nil {
		t.Fatalf("renderMessages failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("Expected 2 views, got %d", len(views))
	}

	if strings.Contains(string(views[0].HTML), "<b>") {
		t.Errorf("Expected user text to be escaped, got %q", views[0].HTML)
	}
	if !strings.Contains(string(views[1].HTML), "<strong>coin</strong>") {
		t.Errorf("Expected assistant markdown to render, got %q", views[1].HTML)
	}
}

func TestRenderMessagesCarriesToolCalls(t *testing.T) {
	r := newRenderer()

	views, err := r.renderMessages([]*types.Message{
		{
			Role:      types.RoleAssistant,
			Text:      "Adding the block now.",
			Truncated: true,
			ToolCalls: []types.ToolCallRecord{
				{Name: "add_block", Status: types.ToolCallOK, Changed: true},
			},
		},
	})
	if err != nil {
		t.Fatalf("renderMessages failed: %v", err)
	}

	if !views[0].Truncated {
		t.Error("Expected truncated flag to carry through")
	}
	if len(views[0].ToolCalls) != 1 || views[0].ToolCalls[0].Name != "add_block" {
		t.Errorf("Expected tool call to carry through, got %+v", views[0].ToolCalls)
	}
}
