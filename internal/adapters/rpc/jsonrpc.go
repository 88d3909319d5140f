package rpc

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const requestIDHeader = "X-Request-ID"

// handleRPC answers one call envelope without any session. Call-level
// failures are reported inside a 200 response; only transport problems
// (wrong verb, oversize body, rate limit) use HTTP status codes.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(r)
	w.Header().Set(requestIDHeader, reqID)
	if !s.allow(r) {
		writeStatus(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	started := time.Now()
	resp := s.deps.Router.Handle(r.Context(), body)
	latency := time.Since(started).Milliseconds()
	if resp.Error != nil {
		s.logger.Warn("rpc failed",
			"component", componentName,
			"operation", "rpc",
			"request_id", reqID,
			"rpc_code", resp.Error.Code,
			"latency_ms", latency,
		)
	} else {
		s.logger.Debug("rpc response",
			"component", componentName,
			"operation", "rpc",
			"request_id", reqID,
			"latency_ms", latency,
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" && len(id) <= 128 {
		return id
	}
	return fmt.Sprintf("rpc_%d", time.Now().UnixNano())
}
