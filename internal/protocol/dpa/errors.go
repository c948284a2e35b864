package dpa

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("dpa: validation failed")
	ErrFrameTooShort   = errors.New("dpa: frame too short")
	ErrMalformedJSON   = errors.New("dpa: malformed json")
	ErrUnknownMessage  = errors.New("dpa: unknown message")
	ErrMessageMismatch = errors.New("dpa: message type mismatch")
)

// ValidationError 字段取值越界或长度超限，构造阶段返回，不会进入线路
type ValidationError struct {
	Field  string
	Value  int64
	Min    int64
	Max    int64
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("dpa: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("dpa: invalid %s: %d not in [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FrameTooShortError 二进制帧长度不足
type FrameTooShortError struct {
	MType string
	Got   int
	Want  int
}

func (e *FrameTooShortError) Error() string {
	if e.MType != "" {
		return fmt.Sprintf("dpa: %s frame too short: got %d bytes, want at least %d", e.MType, e.Got, e.Want)
	}
	return fmt.Sprintf("dpa: frame too short: got %d bytes, want at least %d", e.Got, e.Want)
}

func (e *FrameTooShortError) Unwrap() error { return ErrFrameTooShort }

// MalformedJSONError JSON 缺少必需字段或类型不符
type MalformedJSONError struct {
	Key    string
	Reason string
}

func (e *MalformedJSONError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("dpa: malformed json: missing %q", e.Key)
	}
	if e.Key == "" {
		return "dpa: malformed json: " + e.Reason
	}
	return fmt.Sprintf("dpa: malformed json: %q %s", e.Key, e.Reason)
}

func (e *MalformedJSONError) Unwrap() error { return ErrMalformedJSON }

// UnknownMessageError 注册表中没有匹配的 (pnum, pcmd) 或 mType
type UnknownMessageError struct {
	PNUM  Peripheral
	PCMD  Command
	MType string
}

func (e *UnknownMessageError) Error() string {
	if e.MType != "" {
		return fmt.Sprintf("dpa: unknown message type %q", e.MType)
	}
	return fmt.Sprintf("dpa: unknown message pnum=0x%02X pcmd=0x%02X", uint8(e.PNUM), uint8(e.PCMD))
}

func (e *UnknownMessageError) Unwrap() error { return ErrUnknownMessage }

// MessageMismatchError 类型化解码器收到了其他命令的帧
type MessageMismatchError struct {
	Want MessageType
	PNUM Peripheral
	PCMD Command
	// JSON 路径下的实际 mType
	MType string
}

func (e *MessageMismatchError) Error() string {
	if e.MType != "" {
		return fmt.Sprintf("dpa: expected %s, got mType %q", e.Want, e.MType)
	}
	return fmt.Sprintf("dpa: expected %s, got pnum=0x%02X pcmd=0x%02X", e.Want, uint8(e.PNUM), uint8(e.PCMD))
}

func (e *MessageMismatchError) Unwrap() error { return ErrMessageMismatch }
