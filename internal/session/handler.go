package session

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// MessageHandler is the backend side of a stream. Attach runs before a
// stream is announced to its client, HandleMessage runs once per
// addressed message and Detach runs after the stream closed.
type MessageHandler interface {
	Attach(ctx context.Context, s *Stream) error
	HandleMessage(ctx context.Context, s *Stream, payload json.RawMessage) error
	Detach(s *Stream)
}

// HandlerSlot holds the message handler once the backend finished
// initializing. An empty slot makes streams and dispatch report
// ServiceUnavailable.
type HandlerSlot struct {
	ref atomic.Pointer[handlerRef]
}

type handlerRef struct {
	handler MessageHandler
}

func (s *HandlerSlot) Set(h MessageHandler) {
	if h == nil {
		s.ref.Store(nil)
		return
	}
	s.ref.Store(&handlerRef{handler: h})
}

func (s *HandlerSlot) Get() (MessageHandler, bool) {
	if s == nil {
		return nil, false
	}
	ref := s.ref.Load()
	if ref == nil {
		return nil, false
	}
	return ref.handler, true
}

func (s *HandlerSlot) Ready() bool {
	_, ok := s.Get()
	return ok
}

// Metrics receives session lifecycle counters. A nil Metrics is ignored.
type Metrics interface {
	SetActiveSessions(n int)
	RecordSessionOpened()
	RecordSessionClosed(reason string)
	RecordDispatch(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) SetActiveSessions(int)      {}
func (noopMetrics) RecordSessionOpened()       {}
func (noopMetrics) RecordSessionClosed(string) {}
func (noopMetrics) RecordDispatch(string)      {}
