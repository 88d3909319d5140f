package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sei-gateway/go-backend/internal/domains/contracts"
)

const (
	componentName    = "session"
	DefaultHeartbeat = 20 * time.Second

	CloseReasonClient   = "client_disconnect"
	CloseReasonWrite    = "write_failed"
	CloseReasonShutdown = "shutdown"
)

// Manager owns the lifecycle of persistent streams.
type Manager struct {
	registry *Registry
	handlers *HandlerSlot
	logger   *slog.Logger
	metrics  Metrics
}

func NewManager(registry *Registry, handlers *HandlerSlot, logger *slog.Logger, metrics Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Manager{
		registry: registry,
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Open registers a stream for suppliedID (or a fresh id), attaches it to
// the message handler and only then writes the session_init event. A
// stream returned without error is Open and registered.
func (m *Manager) Open(ctx context.Context, suppliedID string, sink EventSink) (*Stream, error) {
	handler, ok := m.handlers.Get()
	if !ok {
		return nil, contracts.ErrServiceUnavailable
	}
	id, err := normalizeID(suppliedID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = NewID()
	}

	s := newStream(id, sink)
	s.setState(StateAttaching)
	if prev := m.registry.Insert(id, s); prev != nil {
		m.logWarn("open", id, "session id reused; previous stream replaced")
	}
	m.metrics.SetActiveSessions(m.registry.Len())

	if err := handler.Attach(ctx, s); err != nil {
		m.fail(s)
		m.logError("attach", id, err)
		return nil, &contracts.Error{Kind: contracts.KindHandlerError, Message: "attach stream", Err: err}
	}
	if err := s.announce(sessionInit{Type: "session_init", SessionID: id}); err != nil {
		m.fail(s)
		handler.Detach(s)
		m.logError("announce", id, err)
		return nil, &contracts.Error{Kind: contracts.KindHandlerError, Message: "announce session", Err: err}
	}
	m.metrics.RecordSessionOpened()
	m.logInfo("open", id, "session opened", "active_sessions", m.registry.Len())
	return s, nil
}

type sessionInit struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// Serve blocks until ctx is cancelled or the stream terminates, sending
// keepalive comments every heartbeat, and then closes the stream.
func (m *Manager) Serve(ctx context.Context, s *Stream, heartbeat time.Duration) {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close(s, CloseReasonClient)
			return
		case <-s.Done():
			m.Close(s, CloseReasonWrite)
			return
		case <-ticker.C:
			if err := s.keepalive(); err != nil {
				m.Close(s, CloseReasonWrite)
				return
			}
		}
	}
}

// Close terminates s and drops its registry entry. Only the first call
// for a stream detaches it from the handler; later calls are no-ops.
func (m *Manager) Close(s *Stream, reason string) {
	s.terminate(StateClosed)
	if m.registry.release(s.ID(), s) {
		m.metrics.SetActiveSessions(m.registry.Len())
	}
	s.finish.Do(func() {
		m.metrics.RecordSessionClosed(reason)
		if handler, ok := m.handlers.Get(); ok {
			handler.Detach(s)
		}
		m.logInfo("close", s.ID(), "session closed",
			"reason", reason,
			"duration_ms", time.Since(s.OpenedAt()).Milliseconds(),
			"active_sessions", m.registry.Len(),
		)
	})
}

// CloseAll terminates every registered stream.
func (m *Manager) CloseAll(reason string) {
	for _, s := range m.registry.streams() {
		m.Close(s, reason)
	}
}

func (m *Manager) fail(s *Stream) {
	s.terminate(StateFailed)
	m.registry.release(s.ID(), s)
	m.metrics.SetActiveSessions(m.registry.Len())
}

func (m *Manager) logInfo(operation, sessionID, message string, attrs ...any) {
	base := []any{"component", componentName, "operation", operation, "session_id", sessionID}
	m.logger.Info(message, append(base, attrs...)...)
}

func (m *Manager) logWarn(operation, sessionID, message string, attrs ...any) {
	base := []any{"component", componentName, "operation", operation, "session_id", sessionID}
	m.logger.Warn(message, append(base, attrs...)...)
}

func (m *Manager) logError(operation, sessionID string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	m.logger.Error("session error",
		"component", componentName,
		"operation", operation,
		"session_id", sessionID,
		"error", err.Error(),
	)
}
