package wsapi

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iqrf-gateway/internal/gateway"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []dpa.Request
	submitErr error
	awaitErr  error
	// released 非空时 Await 阻塞到 ctx 结束并回报原因
	released chan error
}

func (f *fakeSubmitter) Submit(_ context.Context, req dpa.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return req.MsgID(), nil
}

func (f *fakeSubmitter) Await(ctx context.Context, _ string) (dpa.Response, error) {
	if f.released != nil {
		<-ctx.Done()
		f.released <- ctx.Err()
		return nil, ctx.Err()
	}
	return nil, f.awaitErr
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type statusMsg struct {
	MType string `json:"mType"`
	Data  struct {
		MsgID     string `json:"msgId"`
		Status    int    `json:"status"`
		StatusStr string `json:"statusStr"`
	} `json:"data"`
}

func setup(t *testing.T, sub *fakeSubmitter) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(context.Background(), nil, sub, nil, nil)
	r := gin.New()
	hub.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return hub, conn
}

func readStatus(t *testing.T, conn *websocket.Conn) statusMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m statusMsg
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHubBroadcast(t *testing.T) {
	hub, conn := setup(t, &fakeSubmitter{})
	hub.Broadcast([]byte(`{"mType":"iqrfEmbedOs_Read","data":{"msgId":""}}`))

	m := readStatus(t, conn)
	assert.Equal(t, "iqrfEmbedOs_Read", m.MType)
}

func TestHubRequest(t *testing.T) {
	t.Run("下发成功且超时回送", func(t *testing.T) {
		sub := &fakeSubmitter{awaitErr: gateway.ErrTimeout}
		_, conn := setup(t, sub)

		req, err := dpa.NewOSReadRequest(1, dpa.WithMsgID("ws-1"))
		require.NoError(t, err)
		body, err := req.ToJSON()
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))

		m := readStatus(t, conn)
		assert.Equal(t, "ws-1", m.Data.MsgID)
		assert.Equal(t, gateway.StatusTimeout, m.Data.Status)
		assert.Equal(t, 1, sub.count())
	})

	t.Run("未知mType", func(t *testing.T) {
		sub := &fakeSubmitter{}
		_, conn := setup(t, sub)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"mType":"noSuchType","data":{"msgId":"x"}}`)))

		m := readStatus(t, conn)
		assert.Equal(t, "noSuchType", m.MType)
		assert.Equal(t, "x", m.Data.MsgID)
		assert.Equal(t, "BAD_REQUEST", m.Data.StatusStr)
		assert.Zero(t, sub.count())
	})

	t.Run("缺少data", func(t *testing.T) {
		_, conn := setup(t, &fakeSubmitter{})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"mType":"iqrfEmbedOs_Read"}`)))

		m := readStatus(t, conn)
		assert.Equal(t, gateway.StatusBadRequest, m.Data.Status)
	})

	t.Run("无协调器", func(t *testing.T) {
		sub := &fakeSubmitter{submitErr: gateway.ErrNoLink}
		_, conn := setup(t, sub)
		req, _ := dpa.NewCoordinatorAddrInfoRequest(dpa.WithMsgID("ws-2"))
		body, _ := req.ToJSON()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))

		m := readStatus(t, conn)
		assert.Equal(t, "ws-2", m.Data.MsgID)
		assert.Equal(t, gateway.StatusNoLink, m.Data.Status)
	})
}

func TestHubDisconnect(t *testing.T) {
	hub, conn := setup(t, &fakeSubmitter{})
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	hub.Broadcast([]byte(`{}`))
	hub.Close()
}

func TestHubDisconnectCancelsAwait(t *testing.T) {
	sub := &fakeSubmitter{released: make(chan error, 1)}
	hub, conn := setup(t, sub)

	req, err := dpa.NewOSReadRequest(1, dpa.WithMsgID("ws-await"))
	require.NoError(t, err)
	body, err := req.ToJSON()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	select {
	case err := <-sub.released:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("客户端断开后等待未被取消")
	}
}
