package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Fatalf("close redis: %v", err)
		}
	})
	return NewStore(rdb), s
}

func TestStore_GetSet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "title:https://example.com")
	require.NoError(t, err)
	assert.False(t, ok, "expected a miss on an empty cache")

	require.NoError(t, store.Set(ctx, "title:https://example.com", "Example", time.Minute))

	v, ok, err := store.Get(ctx, "title:https://example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Example", v)

	assert.True(t, mr.Exists(KeyPrefixEnrich+"title:https://example.com"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "title:https://example.com")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire with its ttl")
}

func TestStore_Count(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "favicon:a.example.com", "data:a", time.Hour))
	require.NoError(t, store.Set(ctx, "favicon:b.example.com", "data:b", time.Hour))
	require.NoError(t, store.Set(ctx, "title:https://c.example.com", "C", time.Hour))
	require.NoError(t, mr.Set("unrelated", "not counted"))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, mr.Exists(EnrichKey("title:https://c.example.com")))
}

func TestStore_Ping(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
