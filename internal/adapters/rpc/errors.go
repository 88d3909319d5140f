package rpc

import (
	"encoding/json"
	"net/http"

	"sei-gateway/go-backend/internal/domains/contracts"
)

type errorBody struct {
	Error string         `json:"error"`
	Kind  contracts.Kind `json:"kind"`
}

func statusFor(kind contracts.Kind) int {
	switch kind {
	case contracts.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case contracts.KindAmbiguousOrMissingSession, contracts.KindInvalidSessionID, contracts.KindParseError:
		return http.StatusBadRequest
	case contracts.KindSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeHTTPError answers with the status for err's kind and a JSON body.
func writeHTTPError(w http.ResponseWriter, err error) {
	kind := contracts.KindOf(err)
	msg := err.Error()
	if kind == contracts.KindInternal {
		msg = "internal error"
	}
	status := statusFor(kind)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func writeStatus(w http.ResponseWriter, status int, kind contracts.Kind, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Cache-Control")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
