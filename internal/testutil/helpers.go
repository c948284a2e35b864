// Package testutil 集成测试用的 Postgres/Redis 连接，环境不可用时跳过
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iqrf-gateway/internal/migrate"
)

const (
	// EnvDatabaseURL Postgres DSN
	EnvDatabaseURL = "TEST_DATABASE_URL"
	// EnvRedisAddr Redis 地址
	EnvRedisAddr = "TEST_REDIS_ADDR"
)

// 测试使用独立的 Redis DB
const redisTestDB = 15

// MigrationsDir 仓库内 db/migrations 的绝对路径
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations")
}

// SetupTestDB 连接测试库并执行迁移，未配置或不可达时跳过
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s 未设置，跳过测试", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "failed to create test db pool")
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("测试数据库不可用: %v", err)
	}
	_, err = migrate.Runner{Dir: MigrationsDir()}.Up(ctx, pool)
	require.NoError(t, err, "failed to migrate test db")
	return pool
}

// CleanDatabase 清空业务表，保留 schema
func CleanDatabase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, table := range []string{"dpa_exchanges", "nodes"} {
		if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
			t.Logf("Warning: failed to truncate %s: %v", table, err)
		}
	}
}

// SetupTestRedis 连接测试 Redis，未配置或不可达时跳过
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv(EnvRedisAddr)
	if addr == "" {
		t.Skipf("%s 未设置，跳过测试", EnvRedisAddr)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           redisTestDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis 不可用: %v", err)
	}
	return rdb
}

// CleanRedis 删除匹配 pattern 的 key
func CleanRedis(t *testing.T, rdb *redis.Client, pattern string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			t.Logf("Warning: failed to delete key %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		t.Logf("Warning: redis scan error: %v", err)
	}
}
