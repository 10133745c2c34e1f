package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	base := context.Background()
	assert.Empty(t, GetTraceID(base), "context without middleware should carry no trace ID")

	stamped := SetTraceID(base)
	traceID := GetTraceID(stamped)
	require.NotEmpty(t, traceID)

	_, err := uuid.Parse(traceID)
	assert.NoError(t, err, "trace IDs are UUIDs")

	assert.Empty(t, GetTraceID(base), "stamping must not touch the parent context")
}

func TestTraceIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GetTraceID(SetTraceID(context.Background()))
		assert.False(t, seen[id], "trace IDs must not repeat")
		seen[id] = true
	}
}

func TestTraceIDRestampReplaces(t *testing.T) {
	first := SetTraceID(context.Background())
	second := SetTraceID(first)

	assert.NotEqual(t, GetTraceID(first), GetTraceID(second))
}

func TestGetTraceIDWrongValueType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)

	assert.Empty(t, GetTraceID(ctx), "non-string values must read as absent")
}
