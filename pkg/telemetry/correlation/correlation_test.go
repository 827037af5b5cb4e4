package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCorrelationIDGeneratesOnce(t *testing.T) {
	ctx, first := EnsureCorrelationID(context.Background())
	assert.Len(t, first, 26)

	_, second := EnsureCorrelationID(ctx)
	assert.Equal(t, first, second)
}

func TestDetachKeepsCorrelationWithoutCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(ContextWithCorrelationID(context.Background(), "req-1"))
	cancel()

	detached := Detach(parent)
	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-1", ExtractCorrelationID(detached))
}
