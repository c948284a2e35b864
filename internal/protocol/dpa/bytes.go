package dpa

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Bytes 字节序列，JSON 中表示为整数数组（daemon 约定），而非 base64
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, 2+len(b)*4)
	buf = append(buf, '[')
	for i, v := range b {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 10)
	}
	return append(buf, ']'), nil
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = nil
		return nil
	}
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return &MalformedJSONError{Reason: fmt.Sprintf("byte array: %v", err)}
	}
	if err := ValidateBytes("bytes", values, 0, math.MaxInt); err != nil {
		return err
	}
	out := make(Bytes, len(values))
	for i, v := range values {
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Clone 返回独立副本
func (b Bytes) Clone() Bytes {
	if b == nil {
		return nil
	}
	return append(Bytes(nil), b...)
}
