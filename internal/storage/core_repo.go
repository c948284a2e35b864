package storage

import (
	"context"
	"errors"
	"time"

	"github.com/taoyao-code/iqrf-gateway/internal/storage/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("storage: not found")

// NodeRepo 节点清单存储抽象，由协调器响应驱动更新
type NodeRepo interface {
	// WithTx 在单个事务中执行 fn，嵌套调用复用当前事务
	WithTx(ctx context.Context, fn func(repo NodeRepo) error) error

	// TouchNode 记录节点的一次响应（不存在则插入）
	TouchNode(ctx context.Context, addr int, hwpid int, rcode int, at time.Time) error
	// UpsertOSInfo 写入 OS Read 结果
	UpsertOSInfo(ctx context.Context, addr int, info models.OSInfo, at time.Time) error
	// SyncBonded 以协调器位图为准刷新 bonded 标记
	SyncBonded(ctx context.Context, addrs []int) error
	// SyncDiscovered 以协调器位图为准刷新 discovered 标记
	SyncDiscovered(ctx context.Context, addrs []int) error
	// MarkBonded 单个节点绑定/解绑
	MarkBonded(ctx context.Context, addr int, bonded bool) error
	// ClearBonds 清除全部绑定
	ClearBonds(ctx context.Context) error

	GetNode(ctx context.Context, addr int) (*models.Node, error)
	ListNodes(ctx context.Context, limit, offset int) ([]models.Node, error)
}

// Journal 收发帧日志
type Journal interface {
	Record(ctx context.Context, e models.Exchange) error
	ByMsgID(ctx context.Context, msgID string) ([]models.Exchange, error)
	Recent(ctx context.Context, limit int) ([]models.Exchange, error)
}

// ResponseStore 按 msgId 缓存响应 JSON
type ResponseStore interface {
	Put(ctx context.Context, msgID string, payload []byte) error
	Get(ctx context.Context, msgID string) ([]byte, error)
}
