package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMissReturnsNil(t *testing.T) {
	store := NewMemoryStore()

	entry, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestMemoryStorePutAndGet(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(context.Background(), "k", []byte(`{"a":1}`), now))

	entry, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "k", entry.Key)
	assert.Equal(t, []byte(`{"a":1}`), entry.Payload)
	assert.Equal(t, now, entry.CachedAt)
}

func TestMemoryStoreOverwriteOnRefresh(t *testing.T) {
	store := NewMemoryStore()
	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Minute)

	require.NoError(t, store.Put(context.Background(), "k", []byte("old"), first))
	require.NoError(t, store.Put(context.Background(), "k", []byte("new"), second))

	entry, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("new"), entry.Payload)
	assert.Equal(t, second, entry.CachedAt)
}
