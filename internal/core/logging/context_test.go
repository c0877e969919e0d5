package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserID(ctx))
	assert.Empty(t, RequestID(ctx))

	ctx = WithUserID(ctx, "u-1")
	ctx = WithRequestID(ctx, "req-9")

	assert.Equal(t, "u-1", UserID(ctx))
	assert.Equal(t, "req-9", RequestID(ctx))
}
