package tcpserver

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RejectReason 拒绝接入的原因，同时用作指标标签
type RejectReason string

const (
	RejectRate RejectReason = "rate" // 重连风暴限速
	RejectFull RejectReason = "full" // 桥接连接数已满
)

// Admission 桥接接入闸门：令牌桶限速 + 连接槽位
//
// 通常只有一个协调器桥接在线，槽位主要用于挡住重复连接和扫描器。
type Admission struct {
	slots   chan struct{}
	wait    time.Duration
	limiter *rate.Limiter // nil 表示不限速
	rps     float64
	burst   int

	accepted     atomic.Int64
	rejectedRate atomic.Int64
	rejectedFull atomic.Int64
}

// NewAdmission ratePerSec <= 0 时不限速；wait 为槽位已满时的最长等待
func NewAdmission(maxConn int, wait time.Duration, ratePerSec float64, burst int) *Admission {
	if maxConn <= 0 {
		maxConn = 4
	}
	if wait <= 0 {
		wait = time.Second
	}
	a := &Admission{slots: make(chan struct{}, maxConn), wait: wait}
	if ratePerSec > 0 {
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
		a.rps, a.burst = ratePerSec, burst
	}
	return a
}

// Admit 先过限速再占槽位；返回 ok 时调用方必须 Release
func (a *Admission) Admit(ctx context.Context) (RejectReason, bool) {
	if a.limiter != nil && !a.limiter.Allow() {
		a.rejectedRate.Add(1)
		return RejectRate, false
	}

	ctx, cancel := context.WithTimeout(ctx, a.wait)
	defer cancel()
	select {
	case a.slots <- struct{}{}:
		a.accepted.Add(1)
		return "", true
	case <-ctx.Done():
		a.rejectedFull.Add(1)
		return RejectFull, false
	}
}

// Release 归还槽位，多余调用无副作用
func (a *Admission) Release() {
	select {
	case <-a.slots:
	default:
	}
}

func (a *Admission) Active() int { return len(a.slots) }

func (a *Admission) Max() int { return cap(a.slots) }

// AdmissionStats 接入统计
type AdmissionStats struct {
	MaxConnections    int     `json:"max_connections"`
	ActiveConnections int     `json:"active_connections"`
	AcceptedTotal     int64   `json:"accepted_total"`
	RejectedRate      int64   `json:"rejected_rate"`
	RejectedFull      int64   `json:"rejected_full"`
	RatePerSecond     float64 `json:"rate_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"`
}

func (a *Admission) Stats() AdmissionStats {
	return AdmissionStats{
		MaxConnections:    a.Max(),
		ActiveConnections: a.Active(),
		AcceptedTotal:     a.accepted.Load(),
		RejectedRate:      a.rejectedRate.Load(),
		RejectedFull:      a.rejectedFull.Load(),
		RatePerSecond:     a.rps,
		Burst:             a.burst,
	}
}
