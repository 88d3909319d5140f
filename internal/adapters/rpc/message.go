package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"sei-gateway/go-backend/internal/domains/contracts"
)

type forwardedBody struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
}

// handleMessage forwards a JSON body to the stream named by sessionId.
// When sessionId is absent and exactly one stream is open, that stream
// receives it.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.allow(r) {
		writeStatus(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}
	if !s.deps.Handlers.Ready() {
		writeHTTPError(w, contracts.ErrServiceUnavailable)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if !json.Valid(body) {
		writeHTTPError(w, contracts.NewError(contracts.KindParseError, "request body is not valid JSON"))
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	resolved, err := s.deps.Dispatcher.Dispatch(r.Context(), sessionID, body)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, forwardedBody{Status: "forwarded", SessionID: resolved})
}

// readBody reads at most MaxBodyBytes and answers 413 past that.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeStatus(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return nil, false
		}
		writeStatus(w, http.StatusBadRequest, contracts.KindParseError, "read request body")
		return nil, false
	}
	return body, true
}
