package health

import (
	"context"
	"fmt"
	"time"
)

// Status 组件健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 可继续服务，部分能力缺失
	StatusUnhealthy Status = "unhealthy" // 无法服务
)

func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// worse 取两者中更差的状态
func worse(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// CheckResult 单个组件的检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 组件检查器
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// 单个检查的超时上限
const checkTimeout = 2 * time.Second

func finish(start time.Time, status Status, message string, details map[string]any) CheckResult {
	return CheckResult{Status: status, Message: message, Details: details, Latency: time.Since(start)}
}

// poolStatus 连接池占用率到状态，unhealthyAtFull 为 false 时满载只降级
func poolStatus(utilization float64, unhealthyAtFull bool) (Status, string) {
	switch {
	case utilization >= 1.0 && unhealthyAtFull:
		return StatusUnhealthy, "connection pool exhausted"
	case utilization > 0.9:
		return StatusDegraded, "connection pool near limit"
	}
	return StatusHealthy, "ok"
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
