package health

import (
	"context"
	"time"
)

// BridgeStats 桥接监听的连接统计
type BridgeStats interface {
	ActiveConnections() int
	MaxConnections() int
}

// LinkState 协调器链路在线状态
type LinkState interface {
	IsOnline(now time.Time) bool
}

// CoordinatorChecker 协调器链路健康检查：无链路或熔断时降级，网关仍可服务查询
type CoordinatorChecker struct {
	bridge  BridgeStats
	links   LinkState
	breaker func() string
}

// NewCoordinatorChecker breaker 返回链路熔断器状态，可为 nil
func NewCoordinatorChecker(bridge BridgeStats, links LinkState, breaker func() string) *CoordinatorChecker {
	return &CoordinatorChecker{bridge: bridge, links: links, breaker: breaker}
}

// Name 返回检查器名称
func (c *CoordinatorChecker) Name() string {
	return "coordinator"
}

// Check 执行健康检查
func (c *CoordinatorChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	active, maxConns := c.bridge.ActiveConnections(), c.bridge.MaxConnections()
	online := c.links.IsOnline(start)
	details := map[string]any{
		"active_connections": active,
		"max_connections":    maxConns,
		"online":             online,
	}
	if maxConns > 0 {
		details["utilization"] = percent(float64(active) / float64(maxConns))
	}

	status, message := StatusHealthy, "ok"
	if !online {
		status, message = StatusDegraded, "no coordinator link"
	}
	if c.breaker != nil {
		state := c.breaker()
		details["breaker_state"] = state
		if state == "open" {
			status, message = StatusDegraded, "coordinator link breaker open"
		}
	}

	return finish(start, status, message, details)
}
