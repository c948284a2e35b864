package dpa

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// HWPIDFromBytes 由高低字节组合 HWPID
func HWPIDFromBytes(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// HWPIDToBytes 拆分 HWPID 为高低字节（线路上低字节在前）
func HWPIDToBytes(hwpid uint16) (hi, lo byte) {
	return byte(hwpid >> 8), byte(hwpid)
}

// NADRFromBytes 由线路顺序的两个字节组合节点地址
func NADRFromBytes(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// PDataFromFrame 返回响应帧固定头之后的载荷，没有载荷时返回 nil
func PDataFromFrame(frame []byte) []byte {
	if len(frame) <= ResponseHeaderLen {
		return nil
	}
	return frame[OffsetPData:]
}

// VectorFromBytes 将同构数组载荷按 size 切分解码，尾部不足一个元素的字节被忽略
func VectorFromBytes[T any](b []byte, size int, decode func([]byte) T) []T {
	if size <= 0 {
		return nil
	}
	out := make([]T, 0, len(b)/size)
	for i := 0; i+size <= len(b); i += size {
		out = append(out, decode(b[i:i+size]))
	}
	return out
}

// BitmapToNodes 节点位图转地址列表，coordinatorShift 时跳过第 0 位
func BitmapToNodes(bitmap []byte, coordinatorShift bool) []int {
	nodes := make([]int, 0)
	start := 0
	if coordinatorShift {
		start = 1
	}
	for i := start; i < len(bitmap)*8; i++ {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// NodesToBitmap 地址列表转 size 字节位图，超出位图范围的地址被忽略
func NodesToBitmap(nodes []int, size int) []byte {
	bitmap := make([]byte, size)
	for _, n := range nodes {
		if n < 0 || n >= size*8 {
			continue
		}
		bitmap[n/8] |= 1 << (n % 8)
	}
	return bitmap
}

// PeripheralsToBitmap 外设编号列表转 4 字节位图
func PeripheralsToBitmap(pers []int) []byte {
	return NodesToBitmap(pers, 4)
}

// BitmapToPeripherals 外设位图转编号列表
func BitmapToPeripherals(bitmap []byte) []int {
	return BitmapToNodes(bitmap, false)
}

// HexStringToBytes 解析连续十六进制串，如 "0a0b"
func HexStringToBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("dpa: empty hex string")
	}
	return hex.DecodeString(s)
}

// BytesToHexString 输出小写连续十六进制串
func BytesToHexString(b []byte) string {
	return hex.EncodeToString(b)
}

// DottedHex 输出 daemon 使用的点分十六进制，如 "00.00.06.03.ff.ff"
func DottedHex(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, v := range b {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(hex.EncodeToString([]byte{v}))
	}
	return sb.String()
}

// ParseDottedHex 解析点分十六进制
func ParseDottedHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimSuffix(s, "."), ".")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return nil, fmt.Errorf("dpa: invalid dotted hex %q", p)
		}
		if len(p) == 1 {
			p = "0" + p
		}
		v, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("dpa: invalid dotted hex %q: %w", p, err)
		}
		out = append(out, v[0])
	}
	return out, nil
}

// ByteComplement 无符号单字节按补码解释
func ByteComplement(v uint8) int {
	return int(int8(v))
}

// WordComplement 无符号双字节按补码解释
func WordComplement(v uint16) int {
	return int(int16(v))
}

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func appendLE16(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint16(b, uint16(v))
}

func appendLE32(b []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}
