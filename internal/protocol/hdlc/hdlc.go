package hdlc

import "errors"

// 帧格式：Flag | escape(payload + CRC8) | Flag
const (
	Flag      byte = 0x7E
	Escape    byte = 0x7D
	EscapeXOR byte = 0x20

	// MaxPayloadLen 单帧最大载荷（DPA 请求头 + 58 字节 PDATA 留足余量）
	MaxPayloadLen = 128
)

var (
	ErrShort    = errors.New("hdlc: short frame")
	ErrBadCRC   = errors.New("hdlc: crc mismatch")
	ErrBadEsc   = errors.New("hdlc: bad escape sequence")
	ErrTooLarge = errors.New("hdlc: frame too large")
)

// Encode 为 DPA 帧加 CRC 并做字节填充
func Encode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrShort
	}
	if len(payload) > MaxPayloadLen {
		return nil, ErrTooLarge
	}
	out := make([]byte, 0, len(payload)*2+4)
	out = append(out, Flag)
	out = appendEscaped(out, payload...)
	out = appendEscaped(out, CRC8(payload))
	return append(out, Flag), nil
}

func appendEscaped(out []byte, b ...byte) []byte {
	for _, v := range b {
		if v == Flag || v == Escape {
			out = append(out, Escape, v^EscapeXOR)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Decode 解析一个完整帧（可带或不带首尾 Flag），返回去除 CRC 的载荷
func Decode(frame []byte) ([]byte, error) {
	if len(frame) > 0 && frame[0] == Flag {
		frame = frame[1:]
	}
	if len(frame) > 0 && frame[len(frame)-1] == Flag {
		frame = frame[:len(frame)-1]
	}
	raw, err := unescape(frame)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, ErrShort
	}
	payload, crc := raw[:len(raw)-1], raw[len(raw)-1]
	if CRC8(payload) != crc {
		return nil, ErrBadCRC
	}
	return payload, nil
}

func unescape(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		v := b[i]
		if v == Flag {
			return nil, ErrBadEsc
		}
		if v != Escape {
			out = append(out, v)
			continue
		}
		i++
		if i >= len(b) || b[i] == Flag {
			return nil, ErrBadEsc
		}
		out = append(out, b[i]^EscapeXOR)
	}
	if len(out) > MaxPayloadLen+1 {
		return nil, ErrTooLarge
	}
	return out, nil
}
