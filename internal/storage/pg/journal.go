package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	"github.com/taoyao-code/iqrf-gateway/internal/storage/models"
)

// Journal 基于 pgx 的收发帧日志
type Journal struct {
	Pool *pgxpool.Pool
}

var _ storage.Journal = (*Journal)(nil)

const exchangeColumns = `id, msg_id, direction, mtype, nadr, pnum, pcmd, hwpid, rcode, frame, created_at`

// Record 追加一条日志，CreatedAt 为零值时取当前时间
func (j *Journal) Record(ctx context.Context, e models.Exchange) error {
	const q = `INSERT INTO dpa_exchanges (msg_id, direction, mtype, nadr, pnum, pcmd, hwpid, rcode, frame, created_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := j.Pool.Exec(ctx, q, e.MsgID, e.Direction, e.MType, e.NADR, e.PNUM, e.PCMD, e.HWPID, e.RCode, e.Frame, e.CreatedAt)
	return err
}

// ByMsgID 返回同一 msgId 的全部帧，按时间升序
func (j *Journal) ByMsgID(ctx context.Context, msgID string) ([]models.Exchange, error) {
	rows, err := j.Pool.Query(ctx,
		`SELECT `+exchangeColumns+` FROM dpa_exchanges WHERE msg_id = $1 ORDER BY id ASC`, msgID)
	if err != nil {
		return nil, err
	}
	return collectExchanges(rows)
}

// Recent 最近 limit 条，按时间倒序
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := j.Pool.Query(ctx,
		`SELECT `+exchangeColumns+` FROM dpa_exchanges ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectExchanges(rows)
}

func collectExchanges(rows pgx.Rows) ([]models.Exchange, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Exchange, error) {
		var e models.Exchange
		err := row.Scan(&e.ID, &e.MsgID, &e.Direction, &e.MType, &e.NADR, &e.PNUM, &e.PCMD, &e.HWPID, &e.RCode, &e.Frame, &e.CreatedAt)
		return e, err
	})
}
