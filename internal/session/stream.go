package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var ErrStreamClosed = errors.New("stream is closed")

// State is the lifecycle position of one persistent stream.
type State int

const (
	StateConnecting State = iota
	StateAttaching
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAttaching:
		return "attaching"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventSink is the raw output of a persistent stream, typically an
// http.ResponseWriter that also implements http.Flusher.
type EventSink interface {
	io.Writer
	Flush()
}

// Stream is one open server-push connection. Writes are serialized and
// delivered in the order they were initiated.
type Stream struct {
	id     string
	sink   EventSink
	opened time.Time

	mu    sync.Mutex
	seq   int64
	state State

	done      chan struct{}
	closeOnce sync.Once
	finish    sync.Once
}

func newStream(id string, sink EventSink) *Stream {
	return &Stream{
		id:     id,
		sink:   sink,
		opened: time.Now().UTC(),
		state:  StateConnecting,
		done:   make(chan struct{}),
	}
}

func (s *Stream) ID() string {
	return s.id
}

func (s *Stream) OpenedAt() time.Time {
	return s.opened
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the stream reaches Closed or Failed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Send writes payload as one JSON data frame. Only an Open stream
// accepts frames, so nothing precedes session_init.
func (s *Stream) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writableLocked() {
		return ErrStreamClosed
	}
	return s.writeFrameLocked(data)
}

// announce writes the first frame of an Attaching stream and moves it to
// Open under the same lock.
func (s *Stream) announce(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAttaching {
		return ErrStreamClosed
	}
	if err := s.writeFrameLocked(data); err != nil {
		return err
	}
	s.state = StateOpen
	return nil
}

func (s *Stream) writeFrameLocked(data []byte) error {
	s.seq++
	if _, err := fmt.Fprintf(s.sink, "id: %d\ndata: %s\n\n", s.seq, data); err != nil {
		s.terminateLocked(StateClosed)
		return fmt.Errorf("write stream event: %w", err)
	}
	s.sink.Flush()
	return nil
}

// keepalive writes an SSE comment line that clients ignore.
func (s *Stream) keepalive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writableLocked() {
		return ErrStreamClosed
	}
	if _, err := io.WriteString(s.sink, ": keepalive\n\n"); err != nil {
		s.terminateLocked(StateClosed)
		return err
	}
	s.sink.Flush()
	return nil
}

func (s *Stream) writableLocked() bool {
	return s.state == StateOpen
}

func (s *Stream) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateFailed {
		return
	}
	s.state = next
}

// terminate moves the stream to a terminal state. It reports whether
// this call performed the transition.
func (s *Stream) terminate(final State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminateLocked(final)
}

func (s *Stream) terminateLocked(final State) bool {
	if s.state == StateClosed || s.state == StateFailed {
		return false
	}
	s.state = final
	s.closeOnce.Do(func() { close(s.done) })
	return true
}
