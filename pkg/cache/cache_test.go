package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Cache {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := OpenBadger("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return map[string]Cache{
		"memory": NewMemory(),
		"redis":  NewRedis(client, "", 0),
		"badger": store,
	}
}

func TestCache_Backends(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		backend := backend
		t.Run(name, func(t *testing.T) {
			key := AttachmentKey{NodeID: "node-1", Name: "schema"}

			_, ok, err := backend.Get(ctx, key)
			require.NoError(t, err)
			require.False(t, ok, "empty cache must miss")

			require.NoError(t, backend.Set(ctx, key, []byte(`{"type":"object"}`)))

			value, ok, err := backend.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			require.JSONEq(t, `{"type":"object"}`, string(value))

			other := AttachmentKey{NodeID: "node-1", Name: "options"}
			_, ok, err = backend.Get(ctx, other)
			require.NoError(t, err)
			require.False(t, ok, "attachments of one node must not alias")

			require.NoError(t, backend.Delete(ctx, key, other))
			_, ok, err = backend.Get(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestAttachmentKey_NoCollisions(t *testing.T) {
	a := AttachmentKey{NodeID: "a/b", Name: "c"}
	b := AttachmentKey{NodeID: "a", Name: "b/c"}
	require.NotEqual(t, a.String(), b.String())
	require.Equal(t, "node-1/schema", AttachmentKey{NodeID: "node-1", Name: "schema"}.String())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	key := AttachmentKey{NodeID: "n", Name: "schema"}

	payload := []byte("abc")
	require.NoError(t, mem.Set(ctx, key, payload))
	payload[0] = 'x'

	value, ok, err := mem.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", string(value))
	require.Equal(t, 1, mem.Len())
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := NewRedis(client, "test:", time.Minute)
	key := AttachmentKey{NodeID: "n", Name: "options"}
	require.NoError(t, backend.Set(ctx, key, []byte("{}")))
	require.True(t, server.Exists("test:n/options"))

	server.FastForward(2 * time.Minute)
	_, ok, err := backend.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok, "entry should expire after ttl")
}
