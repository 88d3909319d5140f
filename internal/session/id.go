package session

import (
	"strings"

	"github.com/google/uuid"

	"sei-gateway/go-backend/internal/domains/contracts"
)

const maxSessionIDLength = 128

// NewID returns a random version-4 UUID in canonical 8-4-4-4-12 form.
func NewID() string {
	return uuid.NewString()
}

// normalizeID trims a client-supplied identifier. An empty result means
// the client supplied none.
func normalizeID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if len(id) > maxSessionIDLength {
		return "", contracts.NewError(contracts.KindInvalidSessionID, "session id is too long")
	}
	return id, nil
}
