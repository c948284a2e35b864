package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/health"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	redisstorage "github.com/taoyao-code/iqrf-gateway/internal/storage/redis"
)

// NewResponseCache 连接 Redis 并返回响应缓存；未启用时三个返回值均为零值，
// 调用方据此保持 store 为 nil 接口。连接成功后挂上 redis 健康检查。
func NewResponseCache(cfg cfgpkg.RedisConfig, agg *health.Aggregator, logger *zap.Logger) (*redisstorage.Client, storage.ResponseStore, error) {
	if !cfg.Enabled {
		logger.Info("redis disabled, responses kept in memory only")
		return nil, nil, nil
	}
	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if agg != nil {
		agg.AddChecker(health.NewRedisChecker(client))
	}
	logger.Info("redis response cache ready",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Duration("response_ttl", cfg.ResponseTTL))
	return client, client.Responses(cfg.ResponseTTL), nil
}
