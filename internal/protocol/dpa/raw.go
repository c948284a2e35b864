package dpa

import (
	"github.com/goccy/go-json"
)

// RawRequest iqrfRaw 透传请求，帧内容由调用方给出
type RawRequest struct {
	requestBase
}

// NewRawRequest 由完整请求帧构建，帧头中的 HWPID 优先于 WithHWPID
func NewRawRequest(frame []byte, opts ...RequestOption) (*RawRequest, error) {
	if len(frame) < RequestHeaderLen {
		return nil, &ValidationError{
			Field:  "rData",
			Value:  int64(len(frame)),
			Min:    RequestHeaderLen,
			Reason: "shorter than request header",
		}
	}
	h := parseHeader(frame)
	if h.PCMD.IsResponse() {
		return nil, &ValidationError{Field: "pcmd", Value: int64(h.PCMD), Min: RequestPCMDMin, Max: RequestPCMDMax}
	}
	// 只借用选项与长度校验，帧头按原样保留
	base, err := newRequestBase(MessageType{PNUM: PeripheralNode}, int(h.NADR), append([]byte(nil), frame[RequestHeaderLen:]...), opts)
	if err != nil {
		return nil, err
	}
	base.mtype = GenericRaw
	base.header = h
	return &RawRequest{requestBase: base}, nil
}

// RawRequestFromJSON 解析 {"req":{"rData":".."}}
func RawRequestFromJSON(data []byte) (*RawRequest, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.MType != GenericRaw.Name {
		return nil, &MessageMismatchError{Want: GenericRaw, MType: env.MType}
	}
	if env.Data.Req == nil || env.Data.Req.RData == "" {
		return nil, &MalformedJSONError{Key: "data.req.rData"}
	}
	frame, err := ParseDottedHex(env.Data.Req.RData)
	if err != nil {
		return nil, &MalformedJSONError{Key: "data.req.rData", Reason: err.Error()}
	}
	return NewRawRequest(frame, WithMsgID(env.Data.MsgID), WithTiming(timingFromMillis(env.Data.Timeout)))
}

func (r *RawRequest) Params() any {
	return map[string]string{"rData": DottedHex(r.ToDPA())}
}

func (r *RawRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r.envelope(&RequestBody{RData: DottedHex(r.ToDPA())}))
}

// RawResponse iqrfRaw 透传响应，不按命令解码
type RawResponse struct {
	responseBase
}

// RawResponseFromDPA 只校验固定头长度
func RawResponseFromDPA(frame []byte) (*RawResponse, error) {
	if err := ValidateMinimumFrameLength(frame, ResponseHeaderLen); err != nil {
		return nil, &FrameTooShortError{MType: GenericRaw.Name, Got: len(frame), Want: ResponseHeaderLen}
	}
	return &RawResponse{responseBase: responseBase{
		mtype:    GenericRaw,
		header:   parseHeader(frame),
		rcode:    ResponseCode(frame[OffsetRCode]),
		dpaValue: frame[OffsetDPAValue],
		pdata:    append([]byte(nil), PDataFromFrame(frame)...),
	}}, nil
}

// RawResponseFromJSON 解析 {"rsp":{"rData":".."}}
func RawResponseFromJSON(data []byte) (*RawResponse, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.MType != GenericRaw.Name {
		return nil, &MessageMismatchError{Want: GenericRaw, MType: env.MType}
	}
	if env.Data.Rsp == nil || env.Data.Rsp.RData == "" {
		return nil, &MalformedJSONError{Key: "data.rsp.rData"}
	}
	frame, err := ParseDottedHex(env.Data.Rsp.RData)
	if err != nil {
		return nil, &MalformedJSONError{Key: "data.rsp.rData", Reason: err.Error()}
	}
	r, err := RawResponseFromDPA(frame)
	if err != nil {
		return nil, err
	}
	r.msgID = env.Data.MsgID
	return r, nil
}

// Result 状态成功时返回原始载荷
func (r *RawResponse) Result() (any, bool) {
	if !r.rcode.IsOK() {
		return nil, false
	}
	return Bytes(r.PData()), true
}

func (r *RawResponse) ToJSON() ([]byte, error) {
	frame := r.frame()
	return json.Marshal(&Envelope{
		MType: GenericRaw.Name,
		Data: EnvelopeData{
			MsgID:     r.msgID,
			Rsp:       &ResponseBody{RData: DottedHex(frame)},
			Raw:       []RawExchange{{Response: DottedHex(frame)}},
			Status:    intPtr(int(r.rcode)),
			StatusStr: r.rcode.String(),
		},
	})
}

func (r *RawResponse) withMsgID(id string) Response {
	cp := *r
	cp.msgID = id
	return &cp
}
