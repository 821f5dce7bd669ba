package logstore

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "design-drop:submissions"

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := OpenRedis(context.Background(), RedisOptions{Addr: mr.Addr(), Key: testKey})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Append(ctx, sampleRecord(i)))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := range got {
		assert.Equal(t, sampleRecord(i), got[i])
	}

	items, err := mr.List(testKey)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestRedisStore_ListMissingKey(t *testing.T) {
	s, _ := newTestRedisStore(t)

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisStore_ListMalformed(t *testing.T) {
	s, mr := newTestRedisStore(t)
	_, err := mr.Push(testKey, `{"name":"A","timestamp":"t","fileCount":1}`, `oops`)
	require.NoError(t, err)

	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestRedisStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, sampleRecord(i)))
		}(i)
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestRedisStore_PingAfterServerClose(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1", Key: testKey})
	assert.Error(t, err)
}

func TestNewRedisStore_SharedClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "other")
	require.NoError(t, s.Append(context.Background(), sampleRecord(1)))
	assert.True(t, mr.Exists("other"))
	require.NoError(t, s.Close())
}
