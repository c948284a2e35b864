package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/logging"
	"github.com/taoyao-code/iqrf-gateway/internal/metrics"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/hdlc"
	"github.com/taoyao-code/iqrf-gateway/internal/session"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	"github.com/taoyao-code/iqrf-gateway/internal/storage/models"
)

var (
	ErrNoLink       = errors.New("gateway: no coordinator link")
	ErrTimeout      = errors.New("gateway: response timeout")
	ErrUnknownMsgID = errors.New("gateway: unknown msgId")
	ErrDuplicateID  = errors.New("gateway: msgId already pending")
)

// resultRetention 已完成请求在内存中保留的时长，供 Await 晚到的调用方取结果
const resultRetention = time.Minute

// Broadcaster 接收全部已解码响应（含异步帧）的 JSON
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Deps 调度器依赖；除 Registry 与 Links 外均可为空
type Deps struct {
	Registry *dpa.Registry
	Links    session.LinkManager
	Store    storage.ResponseStore
	Journal  storage.Journal
	Nodes    storage.NodeRepo
	Metrics  *metrics.AppMetrics
	Profiles *TimingProfiles
	Logger   *zap.Logger
}

type pendingKey struct {
	nadr uint16
	pnum dpa.Peripheral
	pcmd dpa.Command
}

func keyOf(h dpa.Header) pendingKey {
	return pendingKey{nadr: h.NADR, pnum: h.PNUM, pcmd: h.PCMD.Request()}
}

type pending struct {
	msgID    string
	req      dpa.Request
	key      pendingKey
	deadline time.Time
	done     chan struct{}
	// correlated 响应已关联，落库期间不再判定超时
	correlated bool

	// 以下字段在 done 关闭后只读
	rsp      dpa.Response
	err      error
	finished time.Time
}

// Dispatcher 请求下发与响应关联：同一 (nadr, pnum, pcmd) 的请求按 FIFO 匹配响应
type Dispatcher struct {
	cfg     cfgpkg.GatewayConfig
	deps    Deps
	logger  *zap.Logger
	limiter *rate.Limiter
	breaker *CircuitBreaker

	mu      sync.Mutex
	queues  map[pendingKey][]*pending
	byID    map[string]*pending
	waiting int

	lmu       sync.RWMutex
	listeners []Broadcaster

	now func() time.Time
}

// NewDispatcher 创建调度器
func NewDispatcher(cfg cfgpkg.GatewayConfig, deps Deps) *Dispatcher {
	if deps.Registry == nil {
		deps.Registry = dpa.DefaultRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Profiles == nil {
		deps.Profiles = DefaultTimingProfiles()
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestRate > 0 {
		limit = rate.Limit(cfg.RequestRate)
	}
	burst := cfg.RequestBurst
	if burst <= 0 {
		burst = 1
	}
	return &Dispatcher{
		cfg:     cfg,
		deps:    deps,
		logger:  deps.Logger.Named("dispatcher"),
		limiter: rate.NewLimiter(limit, burst),
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout),
		queues:  make(map[pendingKey][]*pending),
		byID:    make(map[string]*pending),
		now:     time.Now,
	}
}

// AddListener 注册响应广播接收方
func (d *Dispatcher) AddListener(b Broadcaster) {
	d.lmu.Lock()
	d.listeners = append(d.listeners, b)
	d.lmu.Unlock()
}

// Breaker 链路写熔断器
func (d *Dispatcher) Breaker() *CircuitBreaker { return d.breaker }

// Pending 等待响应的请求数
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// timeoutFor 请求自带提示优先，其次 mType 配置，最后全局缺省
func (d *Dispatcher) timeoutFor(req dpa.Request) time.Duration {
	t := req.Timing()
	if t.IsZero() {
		t = d.deps.Profiles.Lookup(req.MessageType().Name)
	}
	if total := t.Total(); total > 0 {
		return total
	}
	return d.cfg.DefaultTimeout
}

// Submit 下发请求并登记等待，返回关联用的 msgId；不等待响应
func (d *Dispatcher) Submit(ctx context.Context, req dpa.Request) (string, error) {
	link, ok := d.deps.Links.Active()
	if !ok {
		return "", ErrNoLink
	}
	frame := req.ToDPA()
	enc, err := hdlc.Encode(frame)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", req.MessageType(), err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	msgID := req.MsgID()
	if msgID == "" {
		msgID = uuid.NewString()
	}
	p := &pending{
		msgID:    msgID,
		req:      req,
		key:      keyOf(req.Header()),
		deadline: d.now().Add(d.timeoutFor(req)),
		done:     make(chan struct{}),
	}
	if err := d.register(p); err != nil {
		return "", err
	}

	// 先登记后写入，避免响应先于登记到达
	if err := d.breaker.Call(func() error { return link.Write(enc) }); err != nil {
		d.unregister(p)
		return "", fmt.Errorf("write %s: %w", req.MessageType(), err)
	}

	if m := d.deps.Metrics; m != nil {
		m.DPAEncodeTotal.WithLabelValues(req.MessageType().String()).Inc()
	}
	d.logger.Debug("dpa tx",
		zap.String("msg_id", msgID),
		zap.String("mtype", req.MessageType().String()),
		logging.Frame("frame", frame),
	)
	d.journal(ctx, msgID, models.DirectionTx, req.MessageType().String(), req.Header(), nil, frame)
	return msgID, nil
}

// Exchange Submit 后等待响应
func (d *Dispatcher) Exchange(ctx context.Context, req dpa.Request) (dpa.Response, error) {
	id, err := d.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return d.Await(ctx, id)
}

// Await 阻塞直到关联响应到达、请求超时或 ctx 结束
func (d *Dispatcher) Await(ctx context.Context, msgID string) (dpa.Response, error) {
	d.mu.Lock()
	p, ok := d.byID[msgID]
	var deadline time.Time
	if ok {
		deadline = p.deadline
	}
	d.mu.Unlock()
	if !ok {
		return nil, ErrUnknownMsgID
	}

	timer := time.NewTimer(d.untilDeadline(deadline))
	defer timer.Stop()
	for {
		select {
		case <-p.done:
			return p.rsp, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			// 确认帧可能推迟了截止时间
			d.expire(d.now())
			d.mu.Lock()
			next, correlated := p.deadline, p.correlated
			d.mu.Unlock()
			if correlated {
				select {
				case <-p.done:
					return p.rsp, p.err
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			timer.Reset(d.untilDeadline(next))
		}
	}
}

// untilDeadline 留出少量余量，让 expire 先于唤醒判定超时
func (d *Dispatcher) untilDeadline(dl time.Time) time.Duration {
	return dl.Sub(d.now()) + 10*time.Millisecond
}

// Result 非阻塞查询已完成请求的结果
func (d *Dispatcher) Result(msgID string) (dpa.Response, bool, error) {
	d.mu.Lock()
	p, ok := d.byID[msgID]
	d.mu.Unlock()
	if !ok {
		return nil, false, ErrUnknownMsgID
	}
	select {
	case <-p.done:
		return p.rsp, true, p.err
	default:
		return nil, false, nil
	}
}

func (d *Dispatcher) register(p *pending) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.byID[p.msgID]; ok && old.finished.IsZero() {
		return ErrDuplicateID
	}
	d.byID[p.msgID] = p
	d.queues[p.key] = append(d.queues[p.key], p)
	d.waiting++
	d.setPendingGauge()
	return nil
}

func (d *Dispatcher) unregister(p *pending) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.removeQueued(p) {
		d.waiting--
	}
	delete(d.byID, p.msgID)
	d.setPendingGauge()
}

// removeQueued 调用方持有 d.mu
func (d *Dispatcher) removeQueued(p *pending) bool {
	q := d.queues[p.key]
	for i, v := range q {
		if v == p {
			q = append(q[:i], q[i+1:]...)
			if len(q) == 0 {
				delete(d.queues, p.key)
			} else {
				d.queues[p.key] = q
			}
			return true
		}
	}
	return false
}

// finish 调用方持有 d.mu，且 p 已从队列移除；重复调用无效
func (d *Dispatcher) finish(p *pending, rsp dpa.Response, err error) {
	if !p.finished.IsZero() {
		return
	}
	p.rsp, p.err, p.finished = rsp, err, d.now()
	d.waiting--
	d.setPendingGauge()
	close(p.done)
}

func (d *Dispatcher) setPendingGauge() {
	if m := d.deps.Metrics; m != nil {
		m.PendingRequests.Set(float64(d.waiting))
	}
}

// Run 周期清理超时请求与过期结果，直到 ctx 结束
func (d *Dispatcher) Run(ctx context.Context) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.expire(d.now())
		}
	}
}

func (d *Dispatcher) expire(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, p := range d.byID {
		if !p.finished.IsZero() {
			if now.Sub(p.finished) > resultRetention {
				delete(d.byID, id)
			}
			continue
		}
		if now.After(p.deadline) && !p.correlated {
			d.removeQueued(p)
			d.finish(p, nil, ErrTimeout)
			d.logger.Info("dpa request timeout",
				zap.String("msg_id", id),
				zap.String("mtype", p.req.MessageType().String()),
			)
		}
	}
}

// HandleFrame 处理协调器上行的一帧：确认帧延长等待，响应帧解码后关联、存储并广播
func (d *Dispatcher) HandleFrame(ctx context.Context, frame []byte) {
	if len(frame) < dpa.ResponseHeaderLen {
		d.decodeResult("error")
		d.logger.Warn("short dpa frame", logging.Frame("frame", frame))
		return
	}

	if dpa.IsConfirmation(frame) {
		d.handleConfirmation(ctx, frame)
		return
	}

	rsp, err := d.deps.Registry.ResponseFromDPA(frame)
	if err != nil {
		var unknown *dpa.UnknownMessageError
		if !errors.As(err, &unknown) {
			d.decodeResult("error")
			d.logger.Warn("dpa decode failed", zap.Error(err), logging.Frame("frame", frame))
			return
		}
		// 用户外设等未登记命令按 iqrfRaw 透传
		raw, rerr := dpa.RawResponseFromDPA(frame)
		if rerr != nil {
			d.decodeResult("error")
			return
		}
		d.decodeResult("unknown")
		rsp = raw
	} else {
		d.decodeResult("ok")
	}
	if m := d.deps.Metrics; m != nil {
		m.DPARCodeTotal.WithLabelValues(rsp.RCode().Status().String()).Inc()
	}

	if rsp.RCode().IsAsync() {
		d.journal(ctx, "", models.DirectionAsync, rsp.MessageType().String(), rsp.Header(), rsp, frame)
		d.updateInventory(ctx, nil, rsp)
		d.broadcast(rsp)
		return
	}

	p := d.correlate(rsp.Header())
	if p == nil {
		d.logger.Debug("uncorrelated dpa response", logging.Frame("frame", frame))
		d.journal(ctx, "", models.DirectionRx, rsp.MessageType().String(), rsp.Header(), rsp, frame)
		d.updateInventory(ctx, nil, rsp)
		d.broadcast(rsp)
		return
	}

	if p.req.MessageType() == dpa.GenericRaw {
		if raw, err := dpa.RawResponseFromDPA(frame); err == nil {
			rsp = raw
		}
	}
	rsp = dpa.AttachMsgID(rsp, p.msgID)

	d.logger.Debug("dpa rx",
		zap.String("msg_id", p.msgID),
		zap.String("mtype", rsp.MessageType().String()),
		zap.String("rcode", rsp.RCode().String()),
	)
	d.journal(ctx, p.msgID, models.DirectionRx, rsp.MessageType().String(), rsp.Header(), rsp, frame)
	d.updateInventory(ctx, p.req, rsp)
	payload := d.broadcast(rsp)
	if d.deps.Store != nil && payload != nil {
		if err := d.deps.Store.Put(ctx, p.msgID, payload); err != nil {
			d.logger.Warn("store response failed", zap.String("msg_id", p.msgID), zap.Error(err))
		}
	}

	// 落库与广播完成后再唤醒等待方，Await 返回时缓存已可查
	d.mu.Lock()
	d.finish(p, rsp, nil)
	d.mu.Unlock()
}

// correlate 取出与帧头匹配的最早一个等待请求
func (d *Dispatcher) correlate(h dpa.Header) *pending {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := keyOf(h)
	q := d.queues[key]
	if len(q) == 0 {
		return nil
	}
	p := q[0]
	if len(q) == 1 {
		delete(d.queues, key)
	} else {
		d.queues[key] = q[1:]
	}
	p.correlated = true
	return p
}

func (d *Dispatcher) handleConfirmation(ctx context.Context, frame []byte) {
	c, err := dpa.ParseConfirmation(frame)
	if err != nil {
		d.decodeResult("error")
		d.logger.Warn("bad confirmation", zap.Error(err), logging.Frame("frame", frame))
		return
	}
	d.decodeResult("confirmation")

	var msgID string
	d.mu.Lock()
	if q := d.queues[keyOf(c.Header)]; len(q) > 0 {
		p := q[0]
		msgID = p.msgID
		// 响应长度未知，按最大载荷估算
		window := c.ResponseTimeout(dpa.ResponsePDataMaxLen) + p.req.Timing().DevProcessTime
		if dl := d.now().Add(window); dl.After(p.deadline) {
			p.deadline = dl
		}
	}
	d.mu.Unlock()

	d.logger.Debug("dpa confirmation",
		zap.String("msg_id", msgID),
		zap.Int("hops", c.Hops),
		zap.Int("timeslot", c.Timeslot),
		zap.Int("hops_response", c.HopsResponse),
	)
	d.journal(ctx, msgID, models.DirectionConfirm, "", c.Header, nil, frame)
}

func (d *Dispatcher) decodeResult(result string) {
	if m := d.deps.Metrics; m != nil {
		m.DPADecodeTotal.WithLabelValues(result).Inc()
	}
}

// broadcast 序列化后推送给全部接收方，返回 JSON 供缓存复用
func (d *Dispatcher) broadcast(rsp dpa.Response) []byte {
	payload, err := rsp.ToJSON()
	if err != nil {
		d.logger.Warn("response to json failed", zap.String("mtype", rsp.MessageType().String()), zap.Error(err))
		return nil
	}
	d.lmu.RLock()
	defer d.lmu.RUnlock()
	for _, l := range d.listeners {
		l.Broadcast(payload)
	}
	return payload
}

func (d *Dispatcher) journal(ctx context.Context, msgID, dir, mtype string, h dpa.Header, rsp dpa.Response, frame []byte) {
	if d.deps.Journal == nil {
		return
	}
	e := models.Exchange{
		MsgID:     msgID,
		Direction: dir,
		MType:     mtype,
		NADR:      int(h.NADR),
		PNUM:      int(h.PNUM),
		PCMD:      int(h.PCMD),
		HWPID:     int(h.HWPID),
		Frame:     frame,
		CreatedAt: d.now(),
	}
	if rsp != nil {
		rc := int(rsp.RCode())
		e.RCode = &rc
	}
	if dir == models.DirectionConfirm {
		rc := int(dpa.RCodeConfirmation)
		e.RCode = &rc
	}
	if err := d.deps.Journal.Record(ctx, e); err != nil {
		d.logger.Warn("journal record failed", zap.String("msg_id", msgID), zap.Error(err))
	}
}
