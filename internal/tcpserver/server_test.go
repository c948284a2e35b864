package tcpserver

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

func startServer(t *testing.T, cfg cfgpkg.TCPConfig, h func(*ConnContext)) *Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	s := New(cfg, nil)
	s.SetConnHandler(h)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestServer_ReadWrite(t *testing.T) {
	var (
		mu  sync.Mutex
		got []byte
	)
	connC := make(chan *ConnContext, 1)
	s := startServer(t, cfgpkg.TCPConfig{ReadTimeout: time.Second, WriteTimeout: time.Second}, func(cc *ConnContext) {
		cc.SetOnRead(func(p []byte) {
			mu.Lock()
			got = append(got, p...)
			mu.Unlock()
		})
		connC <- cc
	})

	c, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	var cc *ConnContext
	select {
	case cc = <-connC:
	case <-time.After(time.Second):
		t.Fatal("未收到连接回调")
	}
	assert.Equal(t, 1, s.ActiveConnections())

	_, err = c.Write([]byte{0x7E, 0x01, 0x7E})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, cc.Write([]byte{0xAA, 0xBB}))
	buf := make([]byte, 2)
	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	_, err = c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, buf)

	st := cc.Stats()
	assert.EqualValues(t, 3, st.BytesIn)
	assert.False(t, st.LastRead.IsZero())
	assert.Eventually(t, func() bool { return cc.Stats().FramesOut == 1 }, time.Second, 10*time.Millisecond)

	_ = c.Close()
	select {
	case <-cc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("连接未退出")
	}
	assert.ErrorIs(t, cc.Write([]byte{0x01}), ErrConnClosed)
	assert.Eventually(t, func() bool { return s.ActiveConnections() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_ConnectionLimit(t *testing.T) {
	connC := make(chan *ConnContext, 4)
	s := startServer(t, cfgpkg.TCPConfig{MaxConnections: 1, ReadTimeout: time.Second}, func(cc *ConnContext) { connC <- cc })

	c1, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer c1.Close()
	<-connC

	c2, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer c2.Close()

	// 超出上限的连接被服务端关闭
	_ = c2.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err = c2.Read(make([]byte, 1))
	assert.Error(t, err)
	st := s.AdmissionStats()
	assert.Equal(t, int64(1), st.RejectedFull)
	assert.Zero(t, st.RejectedRate)
}
