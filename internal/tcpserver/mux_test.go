package tcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	padapter "github.com/taoyao-code/iqrf-gateway/internal/protocol/adapter"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/hdlc"
)

func TestMux_SniffAndDispatch(t *testing.T) {
	var frames [][]byte
	mux := NewMux(nil, func(padapter.Conn) padapter.Adapter {
		return hdlc.NewAdapter(func(fr []byte) { frames = append(frames, fr) })
	})

	cc := newConnContext(New(cfgpkg.TCPConfig{}, nil), nil)
	mux.BindToConn(cc)
	require.NotNil(t, cc.onRead)

	t.Run("未识别前缀丢弃", func(t *testing.T) {
		cc.onRead([]byte{0x44, 0x4E, 0x59})
		assert.Empty(t, cc.Protocol())
		assert.Empty(t, frames)
	})

	t.Run("HDLC识别后直通", func(t *testing.T) {
		enc, err := hdlc.Encode([]byte{0x00, 0x00, 0x02, 0x80, 0xFF, 0xFF, 0x00, 0x40})
		require.NoError(t, err)
		cc.onRead(enc[:3])
		assert.Equal(t, "hdlc", cc.Protocol())
		cc.onRead(enc[3:])
		require.Len(t, frames, 1)
		assert.Equal(t, byte(0x80), frames[0][3])
	})
}
