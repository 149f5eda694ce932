package uuidx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New()
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
	assert.NotEqual(t, id, New())
}

func TestNewTraceID(t *testing.T) {
	traceID := NewTraceID()
	assert.Regexp(t, "^[0-9a-f]{32}$", traceID)
	assert.NotEqual(t, traceID, NewTraceID())
}
