package health

import (
	"slices"
	"sync"
)

// 启动阶段
const (
	StageStore    = "store"
	StageListener = "listener"
)

// Readiness 启动阶段就绪标记，所有登记的阶段完成后才对外就绪
type Readiness struct {
	mu     sync.RWMutex
	stages map[string]bool
}

// New 登记需要等待的阶段；未登记任何阶段时始终就绪
func New(stages ...string) *Readiness {
	r := &Readiness{stages: make(map[string]bool, len(stages))}
	for _, s := range stages {
		r.stages[s] = false
	}
	return r
}

// Mark 标记阶段完成，未登记的阶段会被追加
func (r *Readiness) Mark(stage string) {
	r.mu.Lock()
	r.stages[stage] = true
	r.mu.Unlock()
}

func (r *Readiness) Ready() bool {
	return len(r.Pending()) == 0
}

// Pending 尚未完成的阶段，按名称排序
func (r *Readiness) Pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for s, done := range r.stages {
		if !done {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}
