package dpa

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapConversions(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []int
		size   int
		bitmap []byte
	}{
		{"空", []int{}, 2, []byte{0x00, 0x00}},
		{"首字节", []int{0, 3}, 2, []byte{0x09, 0x00}},
		{"跨字节", []int{1, 8, 15}, 2, []byte{0x02, 0x81}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bitmap, NodesToBitmap(tt.nodes, tt.size))
			assert.Equal(t, tt.nodes, BitmapToNodes(tt.bitmap, false))
		})
	}

	assert.Equal(t, []int{3}, BitmapToNodes([]byte{0x09}, true), "跳过协调器位")
	assert.Equal(t, []byte{0x01}, NodesToBitmap([]int{0, 8, -1, 300}, 1), "越界地址忽略")
	assert.Equal(t, []int{0, 2, 9}, BitmapToPeripherals(PeripheralsToBitmap([]int{0, 2, 9})))
}

func TestHexHelpers(t *testing.T) {
	assert.Equal(t, "00.00.06.03.ff.ff", DottedHex([]byte{0, 0, 6, 3, 0xFF, 0xFF}))
	assert.Equal(t, "", DottedHex(nil))

	b, err := ParseDottedHex("00.0a.F.ff.")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x0A, 0x0F, 0xFF}, b)

	_, err = ParseDottedHex("00..01")
	assert.Error(t, err)
	_, err = ParseDottedHex("100")
	assert.Error(t, err)

	b, err = HexStringToBytes("0a0B")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x0B}, b)
	assert.Equal(t, "0a0b", BytesToHexString(b))
	_, err = HexStringToBytes("")
	assert.Error(t, err)
}

func TestComplementAndHeaderBytes(t *testing.T) {
	assert.Equal(t, -1, ByteComplement(0xFF))
	assert.Equal(t, 127, ByteComplement(0x7F))
	assert.Equal(t, -32768, WordComplement(0x8000))

	hi, lo := HWPIDToBytes(0x1234)
	assert.Equal(t, byte(0x12), hi)
	assert.Equal(t, byte(0x34), lo)
	assert.Equal(t, uint16(0x1234), HWPIDFromBytes(hi, lo))
	assert.Equal(t, uint16(0x0201), NADRFromBytes(0x01, 0x02))
}

func TestPDataAndVector(t *testing.T) {
	assert.Nil(t, PDataFromFrame(make([]byte, ResponseHeaderLen)))
	assert.Equal(t, []byte{9}, PDataFromFrame([]byte{0, 0, 0, 0x80, 0, 0, 0, 0, 9}))

	words := VectorFromBytes([]byte{1, 0, 2, 0, 3}, 2, func(b []byte) uint16 { return le16(b) })
	assert.Equal(t, []uint16{1, 2}, words, "尾部不足一个元素时丢弃")
	assert.Nil(t, VectorFromBytes([]byte{1}, 0, func(b []byte) int { return 0 }))
}

func TestValidateHelpers(t *testing.T) {
	err := ValidateFieldRange("x", 5, 0, 4)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "x", verr.Field)
	assert.Equal(t, int64(5), verr.Value)

	assert.NoError(t, ValidateBytes("b", []int{0, 255}, 0, 2))
	assert.ErrorIs(t, ValidateBytes("b", []int{-1}, 0, 2), ErrValidation)
	assert.ErrorIs(t, ValidateBytes("b", []int{1, 2, 3}, 0, 2), ErrValidation)

	assert.ErrorIs(t, ValidateMinimumFrameLength([]byte{1}, 2), ErrFrameTooShort)
	assert.NoError(t, ValidateResponsePCMD(0x80))
	assert.ErrorIs(t, ValidateResponsePCMD(0x7F), ErrValidation)

	assert.ErrorIs(t, ValidateJSONShape(map[string]any{"a": 1}, "a", "b"), ErrMalformedJSON)
}

func TestBytesJSON(t *testing.T) {
	out, err := json.Marshal(Bytes{0, 17, 255})
	require.NoError(t, err)
	assert.Equal(t, `[0,17,255]`, string(out))

	out, err = json.Marshal(Bytes(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))

	var b Bytes
	require.NoError(t, json.Unmarshal([]byte(`[1, 2, 3]`), &b))
	assert.Equal(t, Bytes{1, 2, 3}, b)

	assert.ErrorIs(t, json.Unmarshal([]byte(`[1, 256]`), &b), ErrValidation)
	assert.Error(t, json.Unmarshal([]byte(`"AQID"`), &b), "不接受 base64")
}

func TestResponseCode(t *testing.T) {
	tests := []struct {
		name  string
		code  ResponseCode
		ok    bool
		async bool
		user  bool
		str   string
	}{
		{"成功", RCodeOK, true, false, false, "STATUS_NO_ERROR"},
		{"异步成功", RCodeAsyncResponse, true, true, false, "STATUS_NO_ERROR_ASYNC"},
		{"失败", RCodeErrorFail, false, false, false, "ERROR_FAIL"},
		{"用户错误", 0x21, false, false, true, "ERROR_USER_0x21"},
		{"确认帧", RCodeConfirmation, false, false, false, "CONFIRMATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.code.IsOK())
			assert.Equal(t, tt.async, tt.code.IsAsync())
			assert.Equal(t, tt.user, tt.code.IsUserError())
			assert.Equal(t, tt.str, tt.code.String())
		})
	}
}

func TestConfirmation(t *testing.T) {
	frame := []byte{0x00, 0x00, 0x02, 0x00, 0xFF, 0xFF, 0xFF, 0x43, 0x02, 0x08, 0x01}
	require.True(t, IsConfirmation(frame))

	c, err := ParseConfirmation(frame)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Hops)
	assert.Equal(t, 8, c.Timeslot)
	assert.Equal(t, 1, c.HopsResponse)
	assert.Equal(t, uint8(0x43), c.DPAValue)

	// (2+1)*8*10ms + (1+1)*slot + 40ms
	assert.Equal(t, 240*time.Millisecond+80*time.Millisecond+40*time.Millisecond, c.ResponseTimeout(10))
	assert.Equal(t, 240*time.Millisecond+100*time.Millisecond+40*time.Millisecond, c.ResponseTimeout(39))
	assert.Equal(t, 240*time.Millisecond+120*time.Millisecond+40*time.Millisecond, c.ResponseTimeout(40))

	_, err = ParseConfirmation(frame[:10])
	assert.ErrorIs(t, err, ErrFrameTooShort)

	notConf := append([]byte{}, frame...)
	notConf[OffsetRCode] = 0
	assert.False(t, IsConfirmation(notConf))
	_, err = ParseConfirmation(notConf)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTrConfiguration(t *testing.T) {
	raw := make([]byte, TrConfigurationLen)
	raw[0] = 0x2F // 外设 0,1,2,3,5
	raw[cfgRFOutputPower] = 7
	raw[cfgUARTBaudRate] = 3
	raw[cfgRFChannelA] = 52
	raw[0x1E] = 0xAB

	cfg, err := ParseTrConfiguration(raw)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 5}, cfg.EmbPeripherals)
	assert.Equal(t, 7, cfg.RFOutputPower)
	assert.Equal(t, 52, cfg.RFChannelA)

	out, err := cfg.Bytes()
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	cfg.EmbPeripherals = []int{0}
	out, err = cfg.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), out[0])
	assert.Equal(t, byte(0xAB), out[0x1E], "未命名字节保留")

	_, err = ParseTrConfiguration(raw[:30])
	assert.ErrorIs(t, err, ErrValidation)

	cfg.UARTBaudRate = 9
	_, err = cfg.Bytes()
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, byte(0x5F), ConfigChecksum(nil))
	assert.Equal(t, byte(0x5F^0x01^0x02), ConfigChecksum([]byte{0x01, 0x02}))
}
