package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	"github.com/taoyao-code/iqrf-gateway/internal/testutil"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := testutil.SetupTestRedis(t)
	testutil.CleanRedis(t, rdb, responseKeyPrefix+"*")
	return rdb
}

func TestResponseKey(t *testing.T) {
	assert.Equal(t, "iqrf:rsp:abc", responseKey("abc"))
}

func TestResponseStore(t *testing.T) {
	rdb := setupRedis(t)
	s := NewResponseStore(rdb, time.Second)
	ctx := context.Background()

	t.Run("写入读取", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "m1", []byte(`{"mType":"iqrfEmbedOs_Read"}`)))
		got, err := s.Get(ctx, "m1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"mType":"iqrfEmbedOs_Read"}`, string(got))

		ttl, err := rdb.TTL(ctx, responseKey("m1")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("空msgId", func(t *testing.T) {
		assert.Error(t, s.Put(ctx, "", []byte("{}")))
	})
}

func TestOptions(t *testing.T) {
	opt := options(cfgpkg.RedisConfig{Addr: "redis:6379", DB: 3, PoolSize: 5, DialTimeout: time.Second})
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, 3, opt.DB)
	assert.Equal(t, 5, opt.PoolSize)
	assert.Equal(t, "iqrf-gateway", opt.ClientName)

	_, err := NewClient(cfgpkg.RedisConfig{})
	assert.Error(t, err, "未启用")
}
