package rpc

import (
	"encoding/json"
	"net/http"

	"sei-gateway/go-backend/internal/app"
)

type healthBody struct {
	Status         string   `json:"status"`
	Initialized    bool     `json:"initialized"`
	ActiveSessions int      `json:"activeSessions"`
	SessionIDs     []string `json:"sessionIds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	registry := s.deps.Manager.Registry()
	ids := registry.IDs()
	writeJSON(w, http.StatusOK, healthBody{
		Status:         "ok",
		Initialized:    s.deps.Handlers.Ready() && s.deps.Router.Ready(),
		ActiveSessions: len(ids),
		SessionIDs:     ids,
	})
}

type indexBody struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Methods   []string          `json:"methods"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	version := s.opts.Version
	if version == "" {
		version = app.ServerVersion
	}
	encodeIndent(w, indexBody{
		Name:    app.ServerName,
		Version: version,
		Endpoints: map[string]string{
			"stream":  "GET /sse?sessionId=<id>",
			"message": "POST /message?sessionId=<id>",
			"call":    "POST /rpc",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
		Methods: s.deps.Router.MethodNames(),
	})
}

func encodeIndent(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
