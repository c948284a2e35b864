package dpa

import (
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Header 请求与响应共用的帧头
type Header struct {
	NADR  uint16
	PNUM  Peripheral
	PCMD  Command
	HWPID uint16
}

func (h Header) appendTo(b []byte) []byte {
	hi, lo := HWPIDToBytes(h.HWPID)
	return append(b, byte(h.NADR), byte(h.NADR>>8), byte(h.PNUM), byte(h.PCMD), lo, hi)
}

// parseHeader 调用方保证 frame 至少 RequestHeaderLen 字节
func parseHeader(frame []byte) Header {
	return Header{
		NADR:  NADRFromBytes(frame[OffsetNADRLo], frame[OffsetNADRHi]),
		PNUM:  Peripheral(frame[OffsetPNUM]),
		PCMD:  Command(frame[OffsetPCMD]),
		HWPID: HWPIDFromBytes(frame[OffsetHWPIDHi], frame[OffsetHWPIDLo]),
	}
}

// Timing 传输层调度提示，不进入线路帧；零值表示未设置
type Timing struct {
	DpaRspTime     time.Duration
	DevProcessTime time.Duration
}

// Total 请求总等待时间提示
func (t Timing) Total() time.Duration { return t.DpaRspTime + t.DevProcessTime }

// IsZero 是否未设置
func (t Timing) IsZero() bool { return t.DpaRspTime == 0 && t.DevProcessTime == 0 }

func timingFromMillis(ms int64) Timing {
	return Timing{DpaRspTime: time.Duration(ms) * time.Millisecond}
}

type requestOptions struct {
	hwpid  int
	msgID  string
	timing Timing
}

// RequestOption 请求构建选项
type RequestOption func(*requestOptions)

// WithHWPID 设置 HWPID，默认 0xFFFF 不校验
func WithHWPID(hwpid int) RequestOption {
	return func(o *requestOptions) { o.hwpid = hwpid }
}

// WithMsgID 设置关联 ID，默认生成 UUID
func WithMsgID(id string) RequestOption {
	return func(o *requestOptions) { o.msgID = id }
}

// WithTiming 设置调度提示
func WithTiming(t Timing) RequestOption {
	return func(o *requestOptions) { o.timing = t }
}

// Message 请求与响应的共同能力
type Message interface {
	MessageType() MessageType
	Header() Header
	MsgID() string
	// PData 返回载荷副本
	PData() []byte
	// ToDPA 返回完整二进制帧，调用方独占返回的切片
	ToDPA() []byte
	ToJSON() ([]byte, error)
}

// Request 由本包构建的请求，构建后不可变
type Request interface {
	Message
	Timing() Timing
	// Params JSON param 对象
	Params() any
	isRequest()
}

// Response 只能由 FromDPA/FromJSON 工厂创建
type Response interface {
	Message
	RCode() ResponseCode
	DPAValue() uint8
	// Result 类型化结果，rcode 非 OK 或命令无结果字段时返回 false
	Result() (any, bool)
	withMsgID(id string) Response
}

// AttachMsgID 返回携带关联 ID 的响应副本
func AttachMsgID(r Response, id string) Response {
	return r.withMsgID(id)
}

type requestBase struct {
	mtype  MessageType
	header Header
	msgID  string
	timing Timing
	pdata  []byte
}

func newRequestBase(t MessageType, nadr int, pdata []byte, opts []RequestOption) (requestBase, error) {
	o := requestOptions{hwpid: HWPIDDoNotCheck}
	for _, opt := range opts {
		opt(&o)
	}
	var v validator
	if t.PNUM == PeripheralCoordinator {
		v.rng("nadr", nadr, CoordinatorNADR, CoordinatorNADR)
	} else {
		v.u16("nadr", nadr)
	}
	v.u16("hwpid", o.hwpid)
	v.check(ValidatePDataLength(pdata))
	if o.timing.DpaRspTime < 0 || o.timing.DevProcessTime < 0 {
		v.check(&ValidationError{Field: "timing", Reason: "negative duration"})
	}
	if v.err != nil {
		return requestBase{}, v.err
	}
	if o.msgID == "" {
		o.msgID = uuid.NewString()
	}
	return requestBase{
		mtype: t,
		header: Header{
			NADR:  uint16(nadr),
			PNUM:  t.PNUM,
			PCMD:  t.PCMD,
			HWPID: uint16(o.hwpid),
		},
		msgID:  o.msgID,
		timing: o.timing,
		pdata:  pdata,
	}, nil
}

func (r *requestBase) MessageType() MessageType { return r.mtype }
func (r *requestBase) Header() Header           { return r.header }
func (r *requestBase) MsgID() string            { return r.msgID }
func (r *requestBase) Timing() Timing           { return r.timing }
func (r *requestBase) PData() []byte            { return append([]byte(nil), r.pdata...) }
func (r *requestBase) isRequest()               {}

func (r *requestBase) ToDPA() []byte {
	out := make([]byte, 0, RequestHeaderLen+len(r.pdata))
	out = r.header.appendTo(out)
	return append(out, r.pdata...)
}

func (r *requestBase) envelope(body *RequestBody) *Envelope {
	return &Envelope{
		MType: r.mtype.Name,
		Data: EnvelopeData{
			MsgID:         r.msgID,
			Timeout:       r.timing.DpaRspTime.Milliseconds(),
			Req:           body,
			ReturnVerbose: true,
		},
	}
}

// payload 命令参数：校验并序列化为 PDATA
type payload interface {
	encode() ([]byte, error)
}

// NoParams 无参数命令
type NoParams struct{}

func (NoParams) encode() ([]byte, error) { return nil, nil }

// TypedRequest 带类型化参数的请求
type TypedRequest[P payload] struct {
	requestBase
	params P

	once     sync.Once
	param    json.RawMessage
	paramErr error
}

func newTypedRequest[P payload](t MessageType, nadr int, p P, opts []RequestOption) (*TypedRequest[P], error) {
	p = cloneParams(p)
	pdata, err := p.encode()
	if err != nil {
		return nil, err
	}
	base, err := newRequestBase(t, nadr, pdata, opts)
	if err != nil {
		return nil, err
	}
	return &TypedRequest[P]{requestBase: base, params: p}, nil
}

func cloneParams[P any](p P) P {
	if c, ok := any(p).(interface{ clone() P }); ok {
		return c.clone()
	}
	return p
}

// Fields 返回参数副本
func (r *TypedRequest[P]) Fields() P { return cloneParams(r.params) }

func (r *TypedRequest[P]) Params() any { return r.Fields() }

// paramJSON 首次输出 JSON 时才序列化 param
func (r *TypedRequest[P]) paramJSON() (json.RawMessage, error) {
	r.once.Do(func() {
		r.param, r.paramErr = json.Marshal(r.params)
	})
	return r.param, r.paramErr
}

func (r *TypedRequest[P]) ToJSON() ([]byte, error) {
	param, err := r.paramJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(r.envelope(&RequestBody{
		NADR:  intPtr(int(r.header.NADR)),
		HWPID: intPtr(int(r.header.HWPID)),
		Param: param,
	}))
}

// requestFromJSON 解析 daemon 请求并按与 Build 相同的规则校验
func requestFromJSON[P payload](t MessageType, data []byte) (*TypedRequest[P], error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.MType != t.Name {
		return nil, &MessageMismatchError{Want: t, MType: env.MType}
	}
	body := env.Data.Req
	if body == nil {
		return nil, &MalformedJSONError{Key: "data.req"}
	}
	if body.NADR == nil {
		return nil, &MalformedJSONError{Key: "data.req.nAdr"}
	}
	var p P
	if _, empty := any(p).(NoParams); !empty {
		if isJSONNull(body.Param) {
			return nil, &MalformedJSONError{Key: "data.req.param"}
		}
		if err := checkShape(body.Param, reflect.TypeFor[P](), "data.req.param"); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body.Param, &p); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, verr
			}
			return nil, &MalformedJSONError{Key: "data.req.param", Reason: err.Error()}
		}
	}
	opts := []RequestOption{
		WithMsgID(env.Data.MsgID),
		WithTiming(timingFromMillis(env.Data.Timeout)),
	}
	if body.HWPID != nil {
		opts = append(opts, WithHWPID(*body.HWPID))
	}
	return newTypedRequest(t, *body.NADR, p, opts)
}
