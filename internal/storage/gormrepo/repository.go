package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	"github.com/taoyao-code/iqrf-gateway/internal/storage/models"
)

// Open 复用 pgx 连接池创建 *gorm.DB，两套访问共享同一组连接
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
}

// Repository 基于 GORM 的 NodeRepo 实现。
// 使用 isTx 标记区分事务上下文，避免嵌套事务重复 Begin/Commit。
type Repository struct {
	db   *gorm.DB
	isTx bool
}

// New 返回一个使用给定 *gorm.DB 的 NodeRepo 实例。
func New(db *gorm.DB) storage.NodeRepo {
	return &Repository{db: db}
}

// WithTx 复用现有事务或开启新事务执行 fn。
func (r *Repository) WithTx(ctx context.Context, fn func(storage.NodeRepo) error) error {
	if r.isTx {
		return fn(r)
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	child := &Repository{db: tx, isTx: true}
	if err := fn(child); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// TouchNode 刷新节点最近一次响应，不存在则插入。
func (r *Repository) TouchNode(ctx context.Context, addr int, hwpid int, rcode int, at time.Time) error {
	hw, rc := int32(hwpid), int32(rcode)
	record := &models.Node{
		Addr:       int32(addr),
		HWPID:      &hw,
		LastRCode:  &rc,
		LastSeenAt: &at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "addr"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hwpid":        gorm.Expr("excluded.hwpid"),
				"last_rcode":   gorm.Expr("excluded.last_rcode"),
				"last_seen_at": gorm.Expr("excluded.last_seen_at"),
				"updated_at":   gorm.Expr("NOW()"),
			}),
		}).
		Create(record).Error
}

// UpsertOSInfo 写入 OS Read 结果。
func (r *Repository) UpsertOSInfo(ctx context.Context, addr int, info models.OSInfo, at time.Time) error {
	mid := int64(info.MID)
	ver, build, mcu, rssi := int32(info.OSVersion), int32(info.OSBuild), int32(info.TrMcuType), int32(info.RSSI)
	record := &models.Node{
		Addr:       int32(addr),
		MID:        &mid,
		OSVersion:  &ver,
		OSBuild:    &build,
		TrMcuType:  &mcu,
		RSSI:       &rssi,
		LastSeenAt: &at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "addr"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mid", "os_version", "os_build", "tr_mcu_type", "rssi", "last_seen_at",
			}),
		}).
		Create(record).Error
}

// SyncBonded 以位图为准：列表内置 true，其余置 false。
func (r *Repository) SyncBonded(ctx context.Context, addrs []int) error {
	return r.syncFlag(ctx, "bonded", addrs)
}

// SyncDiscovered 同 SyncBonded，作用于 discovered。
func (r *Repository) SyncDiscovered(ctx context.Context, addrs []int) error {
	return r.syncFlag(ctx, "discovered", addrs)
}

func (r *Repository) syncFlag(ctx context.Context, column string, addrs []int) error {
	return r.WithTx(ctx, func(repo storage.NodeRepo) error {
		tx := repo.(*Repository).db.WithContext(ctx)
		reset := tx.Model(&models.Node{}).Where(column+" = ?", true)
		if len(addrs) > 0 {
			reset = reset.Where("addr NOT IN ?", addrs)
		}
		if err := reset.Update(column, false).Error; err != nil {
			return err
		}
		if len(addrs) == 0 {
			return nil
		}
		records := make([]models.Node, 0, len(addrs))
		for _, a := range addrs {
			n := models.Node{Addr: int32(a)}
			if column == "bonded" {
				n.Bonded = true
			} else {
				n.Discovered = true
			}
			records = append(records, n)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "addr"}},
			DoUpdates: clause.Assignments(map[string]interface{}{column: true}),
		}).Create(&records).Error
	})
}

// MarkBonded 单个节点绑定或解绑。
func (r *Repository) MarkBonded(ctx context.Context, addr int, bonded bool) error {
	record := &models.Node{Addr: int32(addr), Bonded: bonded}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "addr"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"bonded": bonded}),
		}).
		Create(record).Error
}

// ClearBonds 清除全部节点的绑定标记，协调器自身除外。
func (r *Repository) ClearBonds(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.Node{}).
		Where("addr <> 0 AND bonded = ?", true).
		Update("bonded", false).Error
}

// GetNode 按地址查询节点。
func (r *Repository) GetNode(ctx context.Context, addr int) (*models.Node, error) {
	var node models.Node
	err := r.db.WithContext(ctx).Where("addr = ?", addr).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListNodes 分页返回节点列表，按地址升序。
func (r *Repository) ListNodes(ctx context.Context, limit, offset int) ([]models.Node, error) {
	var nodes []models.Node
	q := r.db.WithContext(ctx).Order("addr ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}
