package contracts

import (
	"errors"
	"strings"
)

// Kind classifies gateway failures. Transports map kinds to wire codes.
type Kind string

const (
	KindServiceUnavailable        Kind = "service_unavailable"
	KindAmbiguousOrMissingSession Kind = "ambiguous_or_missing_session"
	KindSessionNotFound           Kind = "session_not_found"
	KindInvalidSessionID          Kind = "invalid_session_id"
	KindHandlerError              Kind = "handler_error"
	KindParseError                Kind = "parse_error"
	KindInvalidProtocolVersion    Kind = "invalid_protocol_version"
	KindMissingMethod             Kind = "missing_method"
	KindUnknownMethod             Kind = "unknown_method"
	KindInvalidParams             Kind = "invalid_params"
	KindBackendOperationFailed    Kind = "backend_operation_failed"
	KindInternal                  Kind = "internal"
)

var (
	ErrServiceUnavailable        = &Error{Kind: KindServiceUnavailable, Message: "service is not initialized"}
	ErrAmbiguousOrMissingSession = &Error{Kind: KindAmbiguousOrMissingSession, Message: "session id is missing or ambiguous"}
	ErrSessionNotFound           = &Error{Kind: KindSessionNotFound, Message: "session not found"}
	ErrUnknownMethod             = &Error{Kind: KindUnknownMethod, Message: "method not found"}
)

// Error is a classified failure. Two errors match under errors.Is when
// their kinds are equal, so callers compare against the Err* values
// without caring about the message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	switch {
	case msg != "" && e.Err != nil:
		return msg + ": " + e.Err.Error()
	case msg != "":
		return msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError classifies err under kind. An already classified error keeps
// its kind so the first classification wins.
func WrapError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classification of err, KindInternal for plain errors.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindInternal
}

// Retryable reports whether the client may repeat the same request later.
func Retryable(err error) bool {
	return KindOf(err) == KindServiceUnavailable
}
