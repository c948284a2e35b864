package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// 迁移后必须存在的表
var requiredTables = []string{"dpa_exchanges", "nodes"}

// DatabaseChecker 交换日志与节点清单所在的 Postgres
type DatabaseChecker struct {
	pool *pgxpool.Pool
}

func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

func (c *DatabaseChecker) Name() string { return "database" }

// Check 连通性、schema 与连接池占用
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.pool.Ping(ctx); err != nil {
		return finish(start, StatusUnhealthy, fmt.Sprintf("ping failed: %v", err), nil)
	}

	var missing []string
	for _, table := range requiredTables {
		var exists bool
		if err := c.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
			return finish(start, StatusUnhealthy, fmt.Sprintf("schema check failed: %v", err), nil)
		}
		if !exists {
			missing = append(missing, table)
		}
	}

	stats := c.pool.Stat()
	utilization := 0.0
	if stats.MaxConns() > 0 {
		utilization = float64(stats.AcquiredConns()) / float64(stats.MaxConns())
	}
	status, message := poolStatus(utilization, true)
	if len(missing) > 0 {
		status, message = StatusUnhealthy, "schema not migrated"
	}

	return finish(start, status, message, map[string]any{
		"acquired_conns": stats.AcquiredConns(),
		"idle_conns":     stats.IdleConns(),
		"max_conns":      stats.MaxConns(),
		"missing_tables": missing,
		"utilization":    percent(utilization),
	})
}
