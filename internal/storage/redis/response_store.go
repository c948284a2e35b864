package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taoyao-code/iqrf-gateway/internal/storage"
)

const responseKeyPrefix = "iqrf:rsp:"

// ResponseStore 以 msgId 为键缓存响应 JSON，过期后自动清理
type ResponseStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

var _ storage.ResponseStore = (*ResponseStore)(nil)

// NewResponseStore ttl 非正时取 10 分钟
func NewResponseStore(rdb redis.UniversalClient, ttl time.Duration) *ResponseStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResponseStore{rdb: rdb, ttl: ttl}
}

func responseKey(msgID string) string { return responseKeyPrefix + msgID }

// Put 写入或覆盖
func (s *ResponseStore) Put(ctx context.Context, msgID string, payload []byte) error {
	if msgID == "" {
		return errors.New("redis: empty msgId")
	}
	return s.rdb.Set(ctx, responseKey(msgID), payload, s.ttl).Err()
}

// Get 不存在或已过期时返回 storage.ErrNotFound
func (s *ResponseStore) Get(ctx context.Context, msgID string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, responseKey(msgID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	return b, err
}
