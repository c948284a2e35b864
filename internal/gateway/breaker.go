package gateway

import (
	"errors"
	"sync"
	"time"
)

// State 链路熔断状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half_open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

var (
	// ErrCircuitOpen 熔断期内拒绝写入
	ErrCircuitOpen = errors.New("gateway: coordinator link breaker open")
	// ErrTooManyRequests 半开期已有一次试探写在进行
	ErrTooManyRequests = errors.New("gateway: link breaker half-open trial in flight")
)

const (
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

// CircuitBreaker 协调器链路写熔断：连续写失败 threshold 次后在 cooldown 内快速失败，
// 之后只放行一次试探写，成功即恢复。
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	trial    bool
	openedAt time.Time
	changed  time.Time
	trips    int64
	onChange func(from, to State)
}

// NewCircuitBreaker 非正参数取默认值
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		changed:   time.Now(),
	}
}

// SetStateChangeCallback 回调在独立 goroutine 中执行
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Call 受熔断保护地执行一次链路写
func (cb *CircuitBreaker) Call(write func() error) error {
	if err := cb.acquire(); err != nil {
		return err
	}
	err := write()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.trial = true
		return nil
	case StateHalfOpen:
		if cb.trial {
			return ErrTooManyRequests
		}
		cb.trial = true
	}
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.trial = false
		if ok {
			cb.failures = 0
			cb.setState(StateClosed)
		} else {
			cb.trip()
		}
		return
	}
	if ok {
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.state == StateClosed && cb.failures >= cb.threshold {
		cb.trip()
	}
}

// trip 调用方持锁
func (cb *CircuitBreaker) trip() {
	cb.trips++
	cb.openedAt = cb.now()
	cb.setState(StateOpen)
}

// setState 调用方持锁
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.changed = cb.now()
	if fn := cb.onChange; fn != nil {
		go fn(from, to)
	}
}

// Reset 新桥接连接绑定时视为链路恢复
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trial = false
	cb.setState(StateClosed)
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerStats 熔断统计，经 /api/v1/link 输出
type BreakerStats struct {
	State         string    `json:"state"`
	Failures      int       `json:"failures"`
	Trips         int64     `json:"trips"`
	LastChange    time.Time `json:"lastChange"`
	RetryAfterSec float64   `json:"retryAfterSec,omitempty"`
}

func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	st := BreakerStats{
		State:      cb.state.String(),
		Failures:   cb.failures,
		Trips:      cb.trips,
		LastChange: cb.changed,
	}
	if cb.state == StateOpen {
		if left := cb.cooldown - cb.now().Sub(cb.openedAt); left > 0 {
			st.RetryAfterSec = left.Seconds()
		}
	}
	return st
}
