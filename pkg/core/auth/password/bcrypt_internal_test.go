package password

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_ConcurrencyBound(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// occupy the only slot
	require.NoError(t, h.sem.Acquire(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	hash, err := h.Hash(ctx, "secret123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, hash)

	ok, err := h.Verify(ctx, "secret123", "$2a$04$whatever")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)

	h.sem.Release(1)

	hash, err = h.Hash(context.Background(), "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}
