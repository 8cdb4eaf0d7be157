package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "key", "value"))
	value, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	require.NoError(t, store.Set(ctx, "key", "replaced"))
	value, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "replaced", value)

	require.NoError(t, store.Remove(ctx, "key"))
	_, err = store.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Remove(ctx, "never-set"), "removing an absent key is not an error")
}
