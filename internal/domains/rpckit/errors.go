package rpckit

import "sei-gateway/go-backend/internal/domains/contracts"

// Error is a transport-level RPC error that can be mapped by the caller
// to a concrete wire format (e.g. JSON-RPC error object).
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *Data  `json:"data,omitempty"`
}

// Data carries the gateway classification next to the numeric code.
type Data struct {
	Kind      contracts.Kind `json:"kind"`
	Retryable bool           `json:"retryable,omitempty"`
}

const (
	CodeParseError         = -32700
	CodeInvalidRequest     = -32600
	CodeMethodNotFound     = -32601
	CodeInvalidParams      = -32602
	CodeInternalError      = -32603
	CodeBackendFailed      = -32000
	CodeSessionMissing     = -32001
	CodeSessionNotFound    = -32002
	CodeHandlerFailed      = -32003
	CodeServiceUnavailable = -32099
)

// FromError maps a classified gateway error onto a JSON-RPC error object.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	kind := contracts.KindOf(err)
	out := &Error{
		Code:    CodeFor(kind),
		Message: err.Error(),
		Data:    &Data{Kind: kind, Retryable: contracts.Retryable(err)},
	}
	if kind == contracts.KindInternal {
		out.Message = "internal error"
	}
	return out
}

func CodeFor(kind contracts.Kind) int {
	switch kind {
	case contracts.KindParseError:
		return CodeParseError
	case contracts.KindInvalidProtocolVersion, contracts.KindMissingMethod:
		return CodeInvalidRequest
	case contracts.KindUnknownMethod:
		return CodeMethodNotFound
	case contracts.KindInvalidParams:
		return CodeInvalidParams
	case contracts.KindBackendOperationFailed:
		return CodeBackendFailed
	case contracts.KindAmbiguousOrMissingSession, contracts.KindInvalidSessionID:
		return CodeSessionMissing
	case contracts.KindSessionNotFound:
		return CodeSessionNotFound
	case contracts.KindHandlerError:
		return CodeHandlerFailed
	case contracts.KindServiceUnavailable:
		return CodeServiceUnavailable
	default:
		return CodeInternalError
	}
}
