package dpa

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Envelope daemon JSON API 消息
type Envelope struct {
	MType string       `json:"mType"`
	Data  EnvelopeData `json:"data"`
}

type EnvelopeData struct {
	MsgID string `json:"msgId"`
	// Timeout 毫秒，对应 dpa_rsp_time 提示
	Timeout       int64         `json:"timeout,omitempty"`
	Req           *RequestBody  `json:"req,omitempty"`
	Rsp           *ResponseBody `json:"rsp,omitempty"`
	Raw           []RawExchange `json:"raw,omitempty"`
	Status        *int          `json:"status,omitempty"`
	StatusStr     string        `json:"statusStr,omitempty"`
	ReturnVerbose bool          `json:"returnVerbose,omitempty"`
}

type RequestBody struct {
	NADR  *int            `json:"nAdr,omitempty"`
	HWPID *int            `json:"hwpId,omitempty"`
	Param json.RawMessage `json:"param,omitempty"`
	// RData iqrfRaw 点分十六进制帧
	RData string `json:"rData,omitempty"`
}

type ResponseBody struct {
	NADR   *int            `json:"nAdr,omitempty"`
	HWPID  *int            `json:"hwpId,omitempty"`
	PNUM   *int            `json:"pnum,omitempty"`
	PCMD   *int            `json:"pcmd,omitempty"`
	RCode  *int            `json:"rCode,omitempty"`
	DPAVal *int            `json:"dpaVal,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	RData  string          `json:"rData,omitempty"`
}

// RawExchange verbose 模式下的原始帧
type RawExchange struct {
	Request  string `json:"request,omitempty"`
	Response string `json:"response,omitempty"`
}

// ParseEnvelope 解析并校验 mType/data/msgId 必需字段
func ParseEnvelope(data []byte) (*Envelope, error) {
	var shape map[string]any
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, &MalformedJSONError{Reason: err.Error()}
	}
	if err := ValidateJSONShape(shape, "mType", "data"); err != nil {
		return nil, err
	}
	inner, ok := shape["data"].(map[string]any)
	if !ok {
		return nil, &MalformedJSONError{Key: "data", Reason: "is not an object"}
	}
	if err := ValidateJSONShape(inner, "msgId"); err != nil {
		return nil, &MalformedJSONError{Key: "data.msgId"}
	}
	env := &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, &MalformedJSONError{Reason: err.Error()}
	}
	return env, nil
}

// responseHeader 读取 rsp 公共字段，pnum/pcmd 缺省时取 t
func (e *Envelope) responseHeader(t MessageType) (Header, ResponseCode, uint8, error) {
	rsp := e.Data.Rsp
	if rsp == nil {
		return Header{}, 0, 0, &MalformedJSONError{Key: "data.rsp"}
	}
	required := []struct {
		key string
		v   *int
		max int
	}{
		{"data.rsp.nAdr", rsp.NADR, WordMax},
		{"data.rsp.hwpId", rsp.HWPID, WordMax},
		{"data.rsp.rCode", rsp.RCode, ByteMax},
		{"data.rsp.dpaVal", rsp.DPAVal, ByteMax},
	}
	for _, f := range required {
		if f.v == nil {
			return Header{}, 0, 0, &MalformedJSONError{Key: f.key}
		}
		if err := ValidateFieldRange(f.key, int64(*f.v), 0, int64(f.max)); err != nil {
			return Header{}, 0, 0, err
		}
	}
	h := Header{
		NADR:  uint16(*rsp.NADR),
		PNUM:  t.PNUM,
		PCMD:  t.PCMD.Response(),
		HWPID: uint16(*rsp.HWPID),
	}
	for _, f := range []struct {
		key string
		v   *int
	}{{"data.rsp.pnum", rsp.PNUM}, {"data.rsp.pcmd", rsp.PCMD}} {
		if f.v == nil {
			continue
		}
		if err := ValidateFieldRange(f.key, int64(*f.v), ByteMin, ByteMax); err != nil {
			return Header{}, 0, 0, err
		}
	}
	if rsp.PNUM != nil && Peripheral(*rsp.PNUM) != t.PNUM {
		return Header{}, 0, 0, &MessageMismatchError{Want: t, PNUM: Peripheral(*rsp.PNUM), PCMD: h.PCMD}
	}
	if rsp.PCMD != nil && !t.Matches(t.PNUM, Command(*rsp.PCMD)) {
		return Header{}, 0, 0, &MessageMismatchError{Want: t, PNUM: h.PNUM, PCMD: Command(*rsp.PCMD)}
	}
	return h, ResponseCode(*rsp.RCode), uint8(*rsp.DPAVal), nil
}

// rawResponse verbose raw 中的响应帧
func (e *Envelope) rawResponse() ([]byte, error) {
	if len(e.Data.Raw) == 0 || e.Data.Raw[0].Response == "" {
		return nil, nil
	}
	frame, err := ParseDottedHex(e.Data.Raw[0].Response)
	if err != nil {
		return nil, &MalformedJSONError{Key: "data.raw.response", Reason: err.Error()}
	}
	return frame, nil
}

// MsgIDFromJSON 读取 data.msgId
func MsgIDFromJSON(data []byte) (string, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return "", err
	}
	return env.Data.MsgID, nil
}

// MTypeFromJSON 读取 mType 字符串
func MTypeFromJSON(data []byte) (string, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return "", err
	}
	return env.MType, nil
}

// RCodeFromJSON 读取 data.rsp.rCode
func RCodeFromJSON(data []byte) (ResponseCode, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return 0, err
	}
	if env.Data.Rsp == nil || env.Data.Rsp.RCode == nil {
		return 0, &MalformedJSONError{Key: "data.rsp.rCode"}
	}
	if err := ValidateFieldRange("rCode", int64(*env.Data.Rsp.RCode), ByteMin, ByteMax); err != nil {
		return 0, err
	}
	return ResponseCode(*env.Data.Rsp.RCode), nil
}

// ResultFromJSON 读取 data.rsp.result，不存在时第二个返回值为 false
func ResultFromJSON(data []byte) (json.RawMessage, bool, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, false, err
	}
	if env.Data.Rsp == nil || isJSONNull(env.Data.Rsp.Result) {
		return nil, false, nil
	}
	return env.Data.Rsp.Result, true, nil
}

// PDataFromJSON 从 data.raw[0].response 取载荷，没有 raw 或没有载荷时返回 nil
func PDataFromJSON(data []byte) ([]byte, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	frame, err := env.rawResponse()
	if err != nil {
		return nil, err
	}
	return PDataFromFrame(frame), nil
}

func isJSONNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func intPtr(v int) *int { return &v }
