package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"sei-gateway/go-backend/internal/domains/contracts"
)

const (
	OutcomeForwarded = "forwarded"
)

// Dispatcher routes addressed messages to the stream they name. It adds
// no locking of its own; per-stream write ordering is kept by Stream.
type Dispatcher struct {
	registry *Registry
	handlers *HandlerSlot
	logger   *slog.Logger
	metrics  Metrics
}

func NewDispatcher(registry *Registry, handlers *HandlerSlot, logger *slog.Logger, metrics Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Dispatcher{
		registry: registry,
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch forwards payload to the session named by suppliedID, or to the
// only open session when suppliedID is empty. It returns the id the
// message was delivered to.
func (d *Dispatcher) Dispatch(ctx context.Context, suppliedID string, payload json.RawMessage) (string, error) {
	started := time.Now()
	id, err := d.dispatch(ctx, suppliedID, payload)
	outcome := OutcomeForwarded
	if err != nil {
		outcome = string(contracts.KindOf(err))
		d.logger.Warn("dispatch failed",
			"component", componentName,
			"operation", "dispatch",
			"session_id", id,
			"kind", outcome,
			"error", err.Error(),
			"latency_ms", time.Since(started).Milliseconds(),
		)
	} else {
		d.logger.Debug("message forwarded",
			"component", componentName,
			"operation", "dispatch",
			"session_id", id,
			"latency_ms", time.Since(started).Milliseconds(),
		)
	}
	d.metrics.RecordDispatch(outcome)
	return id, err
}

func (d *Dispatcher) dispatch(ctx context.Context, suppliedID string, payload json.RawMessage) (string, error) {
	handler, ok := d.handlers.Get()
	if !ok {
		return "", contracts.ErrServiceUnavailable
	}
	supplied, err := normalizeID(suppliedID)
	if err != nil {
		return "", err
	}
	id, err := d.registry.ResolveAmbiguous(supplied)
	if err != nil {
		return "", err
	}
	s, ok := d.registry.Lookup(id)
	if !ok {
		return id, &contracts.Error{Kind: contracts.KindSessionNotFound, Message: "session " + id + " not found; reconnect"}
	}
	if st := s.State(); st != StateOpen {
		return id, &contracts.Error{Kind: contracts.KindSessionNotFound, Message: "session " + id + " is " + st.String()}
	}
	if err := handler.HandleMessage(ctx, s, payload); err != nil {
		if errors.Is(err, ErrStreamClosed) {
			return id, &contracts.Error{Kind: contracts.KindSessionNotFound, Message: "session " + id + " closed", Err: err}
		}
		return id, &contracts.Error{Kind: contracts.KindHandlerError, Message: "handle message", Err: err}
	}
	return id, nil
}
