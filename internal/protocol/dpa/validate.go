package dpa

import "fmt"

// ValidateFieldRange 校验标量字段取值 [min, max]
func ValidateFieldRange(field string, value, min, max int64) error {
	if value < min || value > max {
		return &ValidationError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// ValidatePDataLength 校验请求载荷不超过 58 字节
func ValidatePDataLength(pdata []byte) error {
	if len(pdata) > RequestPDataMaxLen {
		return &ValidationError{
			Field:  "pdata",
			Value:  int64(len(pdata)),
			Min:    0,
			Max:    RequestPDataMaxLen,
			Reason: fmt.Sprintf("length %d exceeds %d bytes", len(pdata), RequestPDataMaxLen),
		}
	}
	return nil
}

// ValidateMinimumFrameLength 校验二进制帧最小长度
func ValidateMinimumFrameLength(frame []byte, expected int) error {
	if len(frame) < expected {
		return &FrameTooShortError{Got: len(frame), Want: expected}
	}
	return nil
}

// ValidateJSONShape 校验 JSON 对象包含必需键
func ValidateJSONShape(obj map[string]any, keys ...string) error {
	if obj == nil {
		return &MalformedJSONError{Reason: "object is null"}
	}
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return &MalformedJSONError{Key: k}
		}
	}
	return nil
}

// ValidateBytes 校验整型列表每项为单字节且长度在 [minLen, maxLen]
func ValidateBytes(field string, values []int, minLen, maxLen int) error {
	if len(values) < minLen || len(values) > maxLen {
		return &ValidationError{
			Field:  field,
			Value:  int64(len(values)),
			Min:    int64(minLen),
			Max:    int64(maxLen),
			Reason: fmt.Sprintf("length %d not in [%d, %d]", len(values), minLen, maxLen),
		}
	}
	for i, v := range values {
		if err := ValidateFieldRange(fmt.Sprintf("%s[%d]", field, i), int64(v), ByteMin, ByteMax); err != nil {
			return err
		}
	}
	return nil
}

// ValidateResponsePCMD 响应命令码必须置最高位
func ValidateResponsePCMD(pcmd uint8) error {
	return ValidateFieldRange("pcmd", int64(pcmd), ResponsePCMDMin, ResponsePCMDMax)
}

// validator 顺序执行校验，返回第一个错误
type validator struct{ err error }

func (v *validator) u8(field string, value int) {
	v.rng(field, value, ByteMin, ByteMax)
}

func (v *validator) u16(field string, value int) {
	v.rng(field, value, WordMin, WordMax)
}

func (v *validator) u32(field string, value int64) {
	if v.err == nil {
		v.err = ValidateFieldRange(field, value, DWordMin, DWordMax)
	}
}

func (v *validator) rng(field string, value, min, max int) {
	if v.err == nil {
		v.err = ValidateFieldRange(field, int64(value), int64(min), int64(max))
	}
}

// length 校验字节序列长度
func (v *validator) length(field string, n, minLen, maxLen int) {
	if v.err == nil && (n < minLen || n > maxLen) {
		v.err = &ValidationError{
			Field:  field,
			Value:  int64(n),
			Min:    int64(minLen),
			Max:    int64(maxLen),
			Reason: fmt.Sprintf("length %d not in [%d, %d]", n, minLen, maxLen),
		}
	}
}

func (v *validator) check(err error) {
	if v.err == nil {
		v.err = err
	}
}

// members 校验地址或外设编号列表每项在 [min, max]
func (v *validator) members(field string, values []int, min, max int) {
	for i, n := range values {
		if v.err != nil {
			return
		}
		v.rng(fmt.Sprintf("%s[%d]", field, i), n, min, max)
	}
}
