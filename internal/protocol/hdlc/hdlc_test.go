package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC8(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{"空数据", []byte{}, 0xFF},
		{"单字节0", []byte{0x00}, 0x35},
		{"协调器地址查询", []byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF}, CRC8([]byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CRC8(tt.data))
		})
	}

	// 反射 CRC 无输出异或：数据加上自身 CRC 后余数为 0
	data := []byte{0x01, 0x00, 0x06, 0x03, 0xFF, 0xFF}
	assert.Equal(t, byte(0x00), CRC8(append(data, CRC8(data))))
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"普通帧", []byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF}},
		{"含Flag", []byte{0x01, 0x7E, 0x02}},
		{"含Escape", []byte{0x7D, 0x7D, 0x7E}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, Flag, enc[0])
			assert.Equal(t, Flag, enc[len(enc)-1])
			for _, b := range enc[1 : len(enc)-1] {
				assert.NotEqual(t, Flag, b, "帧内不出现 Flag")
			}

			dec, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, dec)
		})
	}

	enc, err := Encode([]byte{0x7E})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7D, 0x5E}, enc[1:3], "0x7E 转义为 7D 5E")

	_, err = Encode(nil)
	assert.ErrorIs(t, err, ErrShort)
	_, err = Encode(make([]byte, MaxPayloadLen+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeErrors(t *testing.T) {
	good, err := Encode([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	bad := append([]byte{}, good...)
	bad[1] ^= 0xFF
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrBadCRC)

	_, err = Decode([]byte{Flag, 0x01, Escape, Flag})
	assert.ErrorIs(t, err, ErrBadEsc)

	_, err = Decode([]byte{Flag, 0x01, Flag})
	assert.ErrorIs(t, err, ErrShort)
}

func TestStreamDecoder(t *testing.T) {
	f1, _ := Encode([]byte{0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x40})
	f2, _ := Encode([]byte{0x01, 0x00, 0x06, 0x83, 0xFF, 0xFF, 0x00, 0x7E})

	t.Run("粘包", func(t *testing.T) {
		d := NewStreamDecoder()
		frames, err := d.Feed(append(append([]byte{0x11, 0x22}, f1...), f2...))
		require.NoError(t, err)
		require.Len(t, frames, 2)
		assert.Equal(t, byte(0x40), frames[0][7])
		assert.Equal(t, byte(0x7E), frames[1][7])
	})

	t.Run("半包", func(t *testing.T) {
		d := NewStreamDecoder()
		all := append(append([]byte{}, f1...), f2...)
		var got [][]byte
		for _, b := range all {
			frames, err := d.Feed([]byte{b})
			require.NoError(t, err)
			got = append(got, frames...)
		}
		assert.Len(t, got, 2)
	})

	t.Run("坏帧丢弃后继续", func(t *testing.T) {
		d := NewStreamDecoder()
		bad := append([]byte{}, f1...)
		bad[2] ^= 0x01
		frames, err := d.Feed(append(bad, f2...))
		assert.ErrorIs(t, err, ErrBadCRC)
		require.Len(t, frames, 1)
		assert.Equal(t, 1, d.Dropped())
	})

	t.Run("共享Flag", func(t *testing.T) {
		d := NewStreamDecoder()
		joined := append(append([]byte{}, f1...), f2[1:]...)
		frames, err := d.Feed(joined)
		require.NoError(t, err)
		assert.Len(t, frames, 2)
	})
}

func TestAdapter(t *testing.T) {
	var got [][]byte
	a := NewAdapter(func(fr []byte) { got = append(got, fr) })
	enc, _ := Encode([]byte{0x00, 0x00, 0x00, 0x80, 0xFF, 0xFF, 0x00, 0x00})

	assert.True(t, a.Sniff(enc[:4]))
	assert.False(t, a.Sniff([]byte{0xFC, 0xFE}))
	assert.False(t, a.Sniff(nil))

	require.NoError(t, a.ProcessBytes(enc[:5]))
	assert.Empty(t, got)
	require.NoError(t, a.ProcessBytes(enc[5:]))
	require.Len(t, got, 1)
	assert.Equal(t, byte(0x80), got[0][3])
}

func TestAdapterNameAndDrop(t *testing.T) {
	a := NewAdapter(nil)
	assert.Equal(t, "hdlc", a.Name())

	var dropped int
	a.OnDrop(func(n int) { dropped += n })
	good, _ := Encode([]byte{0x01, 0x02, 0x03})
	bad := append([]byte{}, good...)
	bad[1] ^= 0xFF
	assert.ErrorIs(t, a.ProcessBytes(bad), ErrBadCRC)
	assert.Equal(t, 1, dropped)
	assert.NoError(t, a.ProcessBytes(good))
	assert.Equal(t, 1, dropped)
}
