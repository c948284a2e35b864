package dpa

import "time"

// STD 模式时隙估算（毫秒）
const (
	timeslotUnit       = 10 * time.Millisecond
	responseSlotShort  = 40 * time.Millisecond // 载荷 < 16 字节
	responseSlotMedium = 50 * time.Millisecond // 载荷 16-39 字节
	responseSlotLong   = 60 * time.Millisecond
	responseSafety     = 40 * time.Millisecond
)

// Confirmation 协调器收到发往节点的请求后回复的确认帧
type Confirmation struct {
	Header   Header
	DPAValue uint8
	// Hops 请求路由跳数
	Hops int
	// Timeslot 单位 10ms
	Timeslot int
	// HopsResponse 响应路由跳数
	HopsResponse int
}

// IsConfirmation 判断帧是否为确认帧
func IsConfirmation(frame []byte) bool {
	return len(frame) >= ResponseHeaderLen && ResponseCode(frame[OffsetRCode]).IsConfirmation()
}

// ParseConfirmation 解析确认帧
func ParseConfirmation(frame []byte) (Confirmation, error) {
	if err := ValidateMinimumFrameLength(frame, ConfirmationLen); err != nil {
		return Confirmation{}, &FrameTooShortError{MType: "confirmation", Got: len(frame), Want: ConfirmationLen}
	}
	if !ResponseCode(frame[OffsetRCode]).IsConfirmation() {
		return Confirmation{}, &ValidationError{
			Field:  "rcode",
			Value:  int64(frame[OffsetRCode]),
			Min:    int64(RCodeConfirmation),
			Max:    int64(RCodeConfirmation),
			Reason: "not a confirmation frame",
		}
	}
	return Confirmation{
		Header:       parseHeader(frame),
		DPAValue:     frame[OffsetDPAValue],
		Hops:         int(frame[OffsetPData]),
		Timeslot:     int(frame[OffsetPData+1]),
		HopsResponse: int(frame[OffsetPData+2]),
	}, nil
}

// ResponseTimeout 估算节点响应到达的时间窗口，responseLen 为预期响应载荷长度
func (c Confirmation) ResponseTimeout(responseLen int) time.Duration {
	requestWindow := time.Duration(c.Hops+1) * time.Duration(c.Timeslot) * timeslotUnit
	slot := responseSlotLong
	switch {
	case responseLen < 16:
		slot = responseSlotShort
	case responseLen <= 39:
		slot = responseSlotMedium
	}
	return requestWindow + time.Duration(c.HopsResponse+1)*slot + responseSafety
}
