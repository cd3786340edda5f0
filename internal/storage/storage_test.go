package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, "local", ttl), mr
}

func exerciseStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	_, err := s.Get(ctx, CartKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, CartKey, []byte(`[{"id":"1"}]`)))
	got, err := s.Get(ctx, CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, s.Delete(ctx, CartKey))
	_, err = s.Get(ctx, CartKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, CartKey))
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	exerciseStorage(t, NewFileStorage(filepath.Join(t.TempDir(), "nested", "local.json")))
}

func TestRedisStorage(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	exerciseStorage(t, s)
}

func TestFileStorage_SharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.json")
	tabA := NewFileStorage(path)
	tabB := NewFileStorage(path)

	require.NoError(t, tabA.Set(ctx, CartKey, []byte("[]")))
	require.NoError(t, tabB.Set(ctx, CountdownKey, []byte("123")))

	got, err := tabA.Get(ctx, CountdownKey)
	require.NoError(t, err)
	assert.Equal(t, "123", string(got))

	got, err = tabB.Get(ctx, CartKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStorage(path).Get(context.Background(), CartKey)
	assert.ErrorContains(t, err, "unmarshal storage file failed")
}

func TestRedisStorage_KeyFormatAndTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 30*time.Minute)

	require.NoError(t, s.Set(context.Background(), PopupSeenKey, []byte("true")))

	assert.True(t, mr.Exists("storefront:local:vipPopupSeen"))
	assert.Equal(t, 30*time.Minute, mr.TTL("storefront:local:vipPopupSeen"))
}
