package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator 并发执行各组件检查并汇总
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
	started  time.Time
}

func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{checkers: checkers, started: time.Now()}
}

// AddChecker 运行期追加（桥接监听启动后才加入协调器检查）
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	a.checkers = append(a.checkers, checker)
	a.mu.Unlock()
}

func (a *Aggregator) snapshot() []Checker {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Checker(nil), a.checkers...)
}

func runCheck(ctx context.Context, c Checker) CheckResult {
	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return c.Check(cctx)
}

// CheckAll 执行全部检查，键为检查器名称
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	checkers := a.snapshot()
	results := make(map[string]CheckResult, len(checkers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			r := runCheck(ctx, c)
			mu.Lock()
			results[c.Name()] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// Check 执行单个组件检查
func (a *Aggregator) Check(ctx context.Context, name string) (CheckResult, bool) {
	for _, c := range a.snapshot() {
		if c.Name() == name {
			return runCheck(ctx, c), true
		}
	}
	return CheckResult{}, false
}

func overall(results map[string]CheckResult) Status {
	s := StatusHealthy
	for _, r := range results {
		s = worse(s, r.Status)
	}
	return s
}

// OverallStatus 任一组件不健康即整体不健康
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return overall(a.CheckAll(ctx))
}

// Ready 降级仍视为就绪：协调器离线时 REST 查询与日志接口仍可用
func (a *Aggregator) Ready(ctx context.Context) bool {
	return a.OverallStatus(ctx) != StatusUnhealthy
}

// Uptime 聚合器创建以来的运行时长
func (a *Aggregator) Uptime() time.Duration { return time.Since(a.started) }

// HealthReport /health 响应体
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

func (a *Aggregator) Report(ctx context.Context) HealthReport {
	results := a.CheckAll(ctx)
	return HealthReport{
		Status:    overall(results),
		Timestamp: time.Now(),
		Uptime:    a.Uptime().Truncate(time.Second).String(),
		Checks:    results,
	}
}
