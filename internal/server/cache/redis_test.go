package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client), mr
}

func TestConnect_URLAndAddr(t *testing.T) {
	mr := miniredis.RunT(t)

	c1, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = c1.Close()

	c2, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	_ = c2.Close()

	_, err = Connect(context.Background(), "redis://%zz")
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr)
	assert.ErrorContains(t, err, "ping redis")
}

func TestRedisSessionStore_SetGetDel(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "abc", []byte(`{"user_id":"u1"}`), time.Hour))

	raw, err := mr.Get(SessionKeyPrefix + "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"user_id":"u1"}`, raw)
	assert.Equal(t, time.Hour, mr.TTL(SessionKeyPrefix+"abc"))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"user_id":"u1"}`), got)

	require.NoError(t, s.Del(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, s.Del(ctx, "abc"))
}

func TestRedisSessionStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "abc", []byte(`{}`), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisSessionStore_Errors(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	mr.SetError("LOADING")

	assert.Error(t, s.Set(ctx, "abc", []byte(`{}`), time.Minute))
	_, err := s.Get(ctx, "abc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Error(t, s.Del(ctx, "abc"))
	assert.Error(t, s.Ping(ctx))

	mr.SetError("")
	assert.NoError(t, s.Ping(ctx))
}

func TestRedisSessionStore_WrongType(t *testing.T) {
	s, mr := newRedisStore(t)
	_, err := mr.SAdd(SessionKeyPrefix+"set", "x")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "set")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
}
