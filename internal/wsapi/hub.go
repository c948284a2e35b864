package wsapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/gateway"
	"github.com/taoyao-code/iqrf-gateway/internal/metrics"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendQueueLen   = 64
)

// Submitter 请求下发与等待
type Submitter interface {
	Submit(ctx context.Context, req dpa.Request) (string, error)
	Await(ctx context.Context, msgID string) (dpa.Response, error)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	// ctx 客户端断开即取消，挂起的等待随之结束
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *client) close() {
	c.once.Do(func() {
		c.cancel()
		close(c.send)
	})
}

// Hub WebSocket JSON API：接收请求下发，响应与异步帧广播给全部客户端
type Hub struct {
	ctx      context.Context
	registry *dpa.Registry
	submit   Submitter
	appm     *metrics.AppMetrics
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub ctx 结束或客户端断开后，该客户端请求的等待随之取消
func NewHub(ctx context.Context, registry *dpa.Registry, submit Submitter, appm *metrics.AppMetrics, logger *zap.Logger) *Hub {
	if registry == nil {
		registry = dpa.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		ctx:      ctx,
		registry: registry,
		submit:   submit,
		appm:     appm,
		logger:   logger.Named("wsapi"),
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes 挂载 GET /ws
func (h *Hub) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.Handle)
}

// Handle 升级连接并运行读写循环，直到客户端断开
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(h.ctx)
	cl := &client{conn: conn, send: make(chan []byte, sendQueueLen), ctx: ctx, cancel: cancel}
	h.add(cl)
	h.logger.Info("ws client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(cl)
	h.readLoop(cl)

	h.remove(cl)
	h.logger.Info("ws client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	delete(h.clients, cl)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		cl.close()
	}
	h.setGauge(n)
}

func (h *Hub) setGauge(n int) {
	if h.appm != nil {
		h.appm.WSClients.Set(float64(n))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 推送给全部客户端；发送队列已满的客户端被断开
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	var slow []*client
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()
	for _, cl := range slow {
		h.logger.Warn("ws client too slow, dropping", zap.String("remote", cl.conn.RemoteAddr().String()))
		h.remove(cl)
	}
}

// reply 只发给发起请求的客户端
func (h *Hub) reply(cl *client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- payload:
	default:
	}
}

func (h *Hub) readLoop(cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.handleRequest(cl, data)
	}
}

func (h *Hub) handleRequest(cl *client, data []byte) {
	mtype, _ := dpa.MTypeFromJSON(data)
	msgID, _ := dpa.MsgIDFromJSON(data)

	req, err := h.registry.RequestFromJSON(data)
	if err != nil {
		h.reply(cl, gateway.ErrorJSON(mtype, msgID, err))
		return
	}
	id, err := h.submit.Submit(cl.ctx, req)
	if err != nil {
		h.logger.Info("ws request rejected", zap.String("mtype", mtype), zap.String("msg_id", msgID), zap.Error(err))
		h.reply(cl, gateway.ErrorJSON(mtype, req.MsgID(), err))
		return
	}
	// 成功响应经 Broadcast 送达，这里只回送失败
	go func() {
		if _, err := h.submit.Await(cl.ctx, id); err != nil {
			h.reply(cl, gateway.ErrorJSON(mtype, id, err))
		}
	}()
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close 断开全部客户端
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for cl := range clients {
		cl.close()
	}
	h.setGauge(0)
}
