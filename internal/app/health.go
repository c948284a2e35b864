package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/iqrf-gateway/internal/gateway"
	"github.com/taoyao-code/iqrf-gateway/internal/health"
	"github.com/taoyao-code/iqrf-gateway/internal/session"
	"github.com/taoyao-code/iqrf-gateway/internal/tcpserver"
)

// NewHealthAggregator 创建健康检查聚合器，未启用数据库时 dbpool 为 nil
func NewHealthAggregator(dbpool *pgxpool.Pool) *health.Aggregator {
	agg := health.NewAggregator()
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	return agg
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddCoordinatorChecker 桥接监听启动后加入协调器链路检查
func AddCoordinatorChecker(aggregator *health.Aggregator, tcpServer *tcpserver.Server, links session.LinkManager, d *gateway.Dispatcher) {
	aggregator.AddChecker(health.NewCoordinatorChecker(tcpServer, links, func() string {
		return d.Breaker().State().String()
	}))
}
