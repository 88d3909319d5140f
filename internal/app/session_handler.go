package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sei-gateway/go-backend/internal/domains/contracts"
	"sei-gateway/go-backend/internal/session"
)

const (
	ServerName    = "sei-gateway"
	ServerVersion = "0.4.0"

	mcpProtocolVersion = "2024-11-05"
)

// SessionHandler answers addressed messages on the stream they were sent
// to. It shares the router's method table with the direct call endpoint.
type SessionHandler struct {
	router *Router
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[*session.Stream]*sessionState
}

type sessionState struct {
	attachedAt  time.Time
	messages    int
	initialized bool
}

// sessionStats is a point-in-time view of one attached stream.
type sessionStats struct {
	AttachedAt  time.Time
	Messages    int
	Initialized bool
}

func NewSessionHandler(router *Router, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		router:   router,
		logger:   logger,
		sessions: make(map[*session.Stream]*sessionState),
	}
}

func (h *SessionHandler) Attach(_ context.Context, s *session.Stream) error {
	if !h.router.Ready() {
		return contracts.ErrServiceUnavailable
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = &sessionState{attachedAt: time.Now().UTC()}
	return nil
}

func (h *SessionHandler) Detach(s *session.Stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// stats reports bookkeeping for s; ok is false when s is not attached.
func (h *SessionHandler) stats(s *session.Stream) (sessionStats, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.sessions[s]
	if !ok {
		return sessionStats{}, false
	}
	return sessionStats{AttachedAt: st.attachedAt, Messages: st.messages, Initialized: st.initialized}, true
}

// HandleMessage runs payload and writes the response to s. Notifications
// run without a response. A payload that is not valid JSON is returned
// as an error and nothing is written.
func (h *SessionHandler) HandleMessage(ctx context.Context, s *session.Stream, payload json.RawMessage) error {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	h.touch(s, env.Method)

	resp := h.respond(ctx, env)
	if env.IsNotification() {
		if resp.Error != nil {
			h.logger.Debug("notification failed",
				"component", "session_handler",
				"session_id", s.ID(),
				"method", env.Method,
				"error", resp.Error.Message,
			)
		}
		return nil
	}
	return s.Send(resp)
}

func (h *SessionHandler) touch(s *session.Stream, method string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.sessions[s]
	if !ok {
		return
	}
	st.messages++
	if method == "initialize" || method == "notifications/initialized" {
		st.initialized = true
	}
}

func (h *SessionHandler) respond(ctx context.Context, env Envelope) Response {
	switch env.Method {
	case "initialize":
		return h.result(env, map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"serverInfo":      map[string]string{"name": ServerName, "version": ServerVersion},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized", "ping":
		return h.result(env, map[string]any{})
	case "tools/list":
		return h.result(env, map[string]any{"tools": h.router.Tools()})
	case "tools/call":
		return h.toolCall(ctx, env)
	default:
		return h.router.Respond(ctx, env)
	}
}

func (h *SessionHandler) result(env Envelope, result any) Response {
	if env.JSONRPC != ProtocolVersion {
		return errorResponse(env.ID, contracts.NewError(contracts.KindInvalidProtocolVersion, `jsonrpc must be "2.0"`))
	}
	return Response{JSONRPC: ProtocolVersion, ID: responseID(env.ID), Result: result}
}

// toolCall runs a method named in params and wraps the outcome as tool
// content; backend failures surface as isError content, not RPC errors.
func (h *SessionHandler) toolCall(ctx context.Context, env Envelope) Response {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := decodeParams(env.Params, &p); err != nil {
		return errorResponse(env.ID, err)
	}
	if p.Name == "" {
		return errorResponse(env.ID, contracts.NewError(contracts.KindInvalidParams, "name is required"))
	}
	if !h.router.HasMethod(p.Name) {
		return errorResponse(env.ID, &contracts.Error{Kind: contracts.KindUnknownMethod, Message: fmt.Sprintf("tool %q not found", p.Name)})
	}
	out, err := h.router.Call(ctx, p.Name, p.Arguments)
	if err != nil {
		if contracts.KindOf(err) == contracts.KindServiceUnavailable {
			return errorResponse(env.ID, err)
		}
		return h.result(env, toolContent(err.Error(), true))
	}
	text, err := json.Marshal(out)
	if err != nil {
		return h.result(env, toolContent("encode result: "+err.Error(), true))
	}
	return h.result(env, toolContent(string(text), false))
}

func toolContent(text string, isError bool) map[string]any {
	return map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
		"isError": isError,
	}
}
