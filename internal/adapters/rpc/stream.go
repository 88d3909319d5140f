package rpc

import (
	"net/http"
	"strings"

	"sei-gateway/go-backend/internal/domains/contracts"
)

type responseSink struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s responseSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s responseSink) Flush() {
	s.f.Flush()
}

// handleStream opens a persistent event stream. The first event carries
// the session id; addressed messages and their responses follow.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.deps.Handlers.Ready() {
		writeHTTPError(w, contracts.ErrServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}
	release, allowed := s.streams.acquire(clientKey(r))
	if !allowed {
		writeStatus(w, http.StatusTooManyRequests, "rate_limited", "too many open streams")
		return
	}
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	stream, err := s.deps.Manager.Open(r.Context(), sessionID, responseSink{w: w, f: flusher})
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	s.deps.Manager.Serve(r.Context(), stream, s.opts.Heartbeat)
}
