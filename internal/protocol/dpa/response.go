package dpa

import (
	"bytes"
	"errors"
	"reflect"

	"github.com/goccy/go-json"
)

type responseBase struct {
	mtype    MessageType
	header   Header
	rcode    ResponseCode
	dpaValue uint8
	msgID    string
	pdata    []byte
}

func (r *responseBase) MessageType() MessageType { return r.mtype }
func (r *responseBase) Header() Header           { return r.header }
func (r *responseBase) MsgID() string            { return r.msgID }
func (r *responseBase) RCode() ResponseCode      { return r.rcode }
func (r *responseBase) DPAValue() uint8          { return r.dpaValue }
func (r *responseBase) PData() []byte            { return append([]byte(nil), r.pdata...) }

// frame 帧头 + rcode + dpaValue + 原始载荷
func (r *responseBase) frame() []byte {
	out := make([]byte, 0, ResponseHeaderLen+len(r.pdata))
	out = r.header.appendTo(out)
	out = append(out, byte(r.rcode), r.dpaValue)
	return append(out, r.pdata...)
}

func (r *responseBase) ToDPA() []byte { return r.frame() }

func (r *responseBase) envelope(result json.RawMessage) *Envelope {
	rsp := &ResponseBody{
		NADR:   intPtr(int(r.header.NADR)),
		HWPID:  intPtr(int(r.header.HWPID)),
		PNUM:   intPtr(int(r.header.PNUM)),
		PCMD:   intPtr(int(r.header.PCMD)),
		RCode:  intPtr(int(r.rcode)),
		DPAVal: intPtr(int(r.dpaValue)),
		Result: result,
	}
	return &Envelope{
		MType: r.mtype.Name,
		Data: EnvelopeData{
			MsgID:     r.msgID,
			Rsp:       rsp,
			Raw:       []RawExchange{{Response: DottedHex(r.frame())}},
			Status:    intPtr(int(r.rcode)),
			StatusStr: r.rcode.String(),
		},
	}
}

// result 响应结果字段可还原为 PDATA
type result interface {
	appendPData(b []byte) []byte
	validate() error
}

// NoResult 命令成功时没有结果字段
type NoResult struct{}

func (NoResult) appendPData(b []byte) []byte { return b }
func (NoResult) validate() error             { return nil }

// TypedResponse 带类型化结果的响应，结果只能经 Outcome 访问
type TypedResponse[T result] struct {
	responseBase
	outcome Outcome[T]
}

// Outcome rcode 为 OK 时持有结果
func (r *TypedResponse[T]) Outcome() Outcome[T] { return r.outcome }

func (r *TypedResponse[T]) Result() (any, bool) {
	v, ok := r.outcome.Get()
	if !ok {
		return nil, false
	}
	if _, empty := any(v).(NoResult); empty {
		return nil, false
	}
	return v, true
}

func (r *TypedResponse[T]) ToJSON() ([]byte, error) {
	var raw json.RawMessage
	if v, ok := r.Result(); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(r.envelope(raw))
}

func (r *TypedResponse[T]) withMsgID(id string) Response {
	cp := *r
	cp.msgID = id
	return &cp
}

// ResponseCodec 某一命令的响应工厂
type ResponseCodec[T result] struct {
	Type MessageType
	// MinPData rcode 为 OK 时载荷最小长度
	MinPData int
	decode   func(pdata []byte) (T, error)
}

func responseCodec[T result](t MessageType, minPData int, decode func([]byte) (T, error)) ResponseCodec[T] {
	return ResponseCodec[T]{Type: t, MinPData: minPData, decode: decode}
}

func (c ResponseCodec[T]) decodePData(pdata []byte) (T, error) {
	if c.decode == nil {
		var zero T
		return zero, nil
	}
	return c.decode(pdata)
}

// FromDPA 解析二进制响应帧，rcode 非 OK 时不解码载荷
func (c ResponseCodec[T]) FromDPA(frame []byte) (*TypedResponse[T], error) {
	if err := ValidateMinimumFrameLength(frame, ResponseHeaderLen); err != nil {
		return nil, &FrameTooShortError{MType: c.Type.String(), Got: len(frame), Want: ResponseHeaderLen}
	}
	h := parseHeader(frame)
	if !h.PCMD.IsResponse() || !c.Type.Matches(h.PNUM, h.PCMD) {
		return nil, &MessageMismatchError{Want: c.Type, PNUM: h.PNUM, PCMD: h.PCMD}
	}
	rcode := ResponseCode(frame[OffsetRCode])
	r := &TypedResponse[T]{responseBase: responseBase{
		mtype:    c.Type,
		header:   h,
		rcode:    rcode,
		dpaValue: frame[OffsetDPAValue],
		pdata:    append([]byte(nil), PDataFromFrame(frame)...),
	}}
	if !rcode.IsOK() {
		r.outcome = failedOutcome[T](rcode)
		return r, nil
	}
	if len(r.pdata) < c.MinPData {
		return nil, &FrameTooShortError{MType: c.Type.String(), Got: len(frame), Want: ResponseHeaderLen + c.MinPData}
	}
	v, err := c.decodePData(r.pdata)
	if err != nil {
		return nil, err
	}
	r.outcome = okOutcome(rcode, v)
	return r, nil
}

// FromJSON 解析 daemon JSON 响应，rcode 非 OK 时忽略 result
func (c ResponseCodec[T]) FromJSON(data []byte) (*TypedResponse[T], error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.MType != c.Type.Name {
		return nil, &MessageMismatchError{Want: c.Type, MType: env.MType}
	}
	h, rcode, dpaValue, err := env.responseHeader(c.Type)
	if err != nil {
		return nil, err
	}
	frame, err := env.rawResponse()
	if err != nil {
		return nil, err
	}
	r := &TypedResponse[T]{responseBase: responseBase{
		mtype:    c.Type,
		header:   h,
		rcode:    rcode,
		dpaValue: dpaValue,
		msgID:    env.Data.MsgID,
		pdata:    PDataFromFrame(frame),
	}}
	if !rcode.IsOK() {
		if frame != nil {
			if err := c.matchRaw(frame, r, nil); err != nil {
				return nil, err
			}
		}
		r.outcome = failedOutcome[T](rcode)
		return r, nil
	}
	var v T
	if _, empty := any(v).(NoResult); !empty {
		if isJSONNull(env.Data.Rsp.Result) {
			return nil, &MalformedJSONError{Key: "data.rsp.result"}
		}
		if err := checkShape(env.Data.Rsp.Result, reflect.TypeFor[T](), "data.rsp.result"); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(env.Data.Rsp.Result, &v); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, verr
			}
			return nil, &MalformedJSONError{Key: "data.rsp.result", Reason: err.Error()}
		}
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	encoded := v.appendPData(nil)
	if err := ValidateFieldRange("data.rsp.result", int64(len(encoded)), 0, ResponsePDataMaxLen); err != nil {
		return nil, err
	}
	if frame != nil {
		if err := c.matchRaw(frame, r, encoded); err != nil {
			return nil, err
		}
	} else {
		r.pdata = encoded
	}
	r.outcome = okOutcome(rcode, v)
	return r, nil
}

// matchRaw verbose raw 帧必须与 rsp 字段描述同一响应
func (c ResponseCodec[T]) matchRaw(frame []byte, r *TypedResponse[T], encoded []byte) error {
	decoded, err := c.FromDPA(frame)
	if err != nil {
		return err
	}
	const key = "data.raw.response"
	switch {
	case decoded.header != r.header:
		return &MalformedJSONError{Key: key, Reason: "header differs from data.rsp"}
	case decoded.rcode != r.rcode:
		return &MalformedJSONError{Key: key, Reason: "rCode differs from data.rsp"}
	case decoded.dpaValue != r.dpaValue:
		return &MalformedJSONError{Key: key, Reason: "dpaVal differs from data.rsp"}
	}
	if encoded == nil {
		return nil
	}
	if got, ok := decoded.outcome.Get(); ok && !bytes.Equal(got.appendPData(nil), encoded) {
		return &MalformedJSONError{Key: key, Reason: "payload differs from data.rsp.result"}
	}
	return nil
}

// entry 注册表条目
func (c ResponseCodec[T]) entry(requestFromJSON func([]byte) (Request, error)) Entry {
	return Entry{
		Type:            c.Type,
		RequestFromJSON: requestFromJSON,
		ResponseFromDPA: func(frame []byte) (Response, error) {
			r, err := c.FromDPA(frame)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		ResponseFromJSON: func(data []byte) (Response, error) {
			r, err := c.FromJSON(data)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// requestDecoder 包装类型化请求解码为注册表签名
func requestDecoder[P payload](t MessageType) func([]byte) (Request, error) {
	return func(data []byte) (Request, error) {
		r, err := requestFromJSON[P](t, data)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
