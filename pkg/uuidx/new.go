package uuidx

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// New generates a new UUID using the version 7 format and returns it.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewTraceID returns a version 7 UUID as 32 lowercase hex characters,
// the trace id format used by the reflection API.
func NewTraceID() string {
	id := New()
	return hex.EncodeToString(id[:])
}
