package ui

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
)

const transcriptTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>mode: {{.Session.Mode}} · artifact version {{.Artifact.Version}}</p>
<h2>Transcript</h2>
{{range .Messages}}
<div class="message message-{{.Role}}">
  <strong>{{.Role}}</strong>{{if .Truncated}} <em>(truncated)</em>{{end}}
  <div>{{.HTML}}</div>
  {{range .ToolCalls}}
  <div class="tool-call tool-{{.Status}}">{{.Name}}: {{.Status}}{{if .Changed}} (changed){{end}}</div>
  {{end}}
</div>
{{end}}
<h2>Checkpoints</h2>
<ul>
{{range .Checkpoints}}
<li>{{.Label}} — snapshot v{{.Snapshot.Version}} at message {{.MessagePosition}}</li>
{{end}}
</ul>
</body>
</html>`

const sessionListTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sessions</title></head>
<body>
<h1>Sessions</h1>
<ul>
{{range .Sessions}}
<li><a href="{{$.BasePath}}/sessions/{{.ID}}">{{if .Title}}{{.Title}}{{else}}{{.ID}}{{end}}</a> ({{.Mode}})</li>
{{end}}
</ul>
</body>
</html>`

// handler serves the read-only session views.
type handler struct {
	store    storage.Store
	config   *Config
	renderer *renderer

	transcript  *template.Template
	sessionList *template.Template
}

// Handler returns an http.Handler serving the session list at "/" and
// transcripts at "/sessions/{id}". Invalid configuration panics, as
// this is a programmer error.
func Handler(store storage.Store, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.applyDefaults()
	}
	if err := cfg.validate(); err != nil {
		panic("ui: invalid configuration: " + err.Error())
	}

	h := &handler{
		store:       store,
		config:      cfg,
		renderer:    newRenderer(),
		transcript:  template.Must(template.New("transcript").Parse(transcriptTemplate)),
		sessionList: template.Must(template.New("sessions").Parse(sessionListTemplate)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/{id}", h.serveTranscript)
	mux.HandleFunc("GET /{$}", h.serveSessionList)
	return mux
}

func (h *handler) serveTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	artifact, err := h.store.GetArtifact(r.Context(), sessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	messages, err := h.store.ListMessages(r.Context(), sessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	checkpoints, err := h.store.ListCheckpoints(r.Context(), sessionID)
	if err != nil {
		httpError(w, err)
		return
	}

	views, err := h.renderer.renderMessages(messages)
	if err != nil {
		httpError(w, err)
		return
	}

	title := session.Title
	if title == "" {
		title = session.ID
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.transcript.Execute(w, map[string]any{
		"Title":       title,
		"Session":     session,
		"Artifact":    artifact,
		"Messages":    views,
		"Checkpoints": checkpoints,
	})
}

func (h *handler) serveSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.listSessions(r)
	if err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.sessionList.Execute(w, map[string]any{
		"Sessions": sessions,
		"BasePath": strings.TrimSuffix(h.config.BasePath, "/"),
	})
}

func (h *handler) listSessions(r *http.Request) ([]*types.Session, error) {
	lister, ok := h.store.(storage.SessionLister)
	if !ok {
		return nil, nil
	}
	return lister.ListSessions(r.Context(), h.config.PageSize)
}

func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
