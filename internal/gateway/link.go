package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/metrics"
	padapter "github.com/taoyao-code/iqrf-gateway/internal/protocol/adapter"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/hdlc"
	"github.com/taoyao-code/iqrf-gateway/internal/session"
	"github.com/taoyao-code/iqrf-gateway/internal/tcpserver"
)

// NewConnHandler 构建桥接连接处理器：绑定链路、HDLC 解帧后交给调度器。
// ctx 为进程级上下文，链路上行帧的存储操作均在其下执行。
func NewConnHandler(
	ctx context.Context,
	links session.LinkManager,
	d *Dispatcher,
	appm *metrics.AppMetrics,
	logger *zap.Logger,
) func(*tcpserver.ConnContext) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(cc *tcpserver.ConnContext) {
		id := cc.ID()
		links.Bind(cc, time.Now())
		// 新链路接入视为协调器恢复
		d.Breaker().Reset()
		logger.Info("coordinator link bound",
			zap.Uint64("conn_id", id),
			zap.String("remote", cc.RemoteAddr().String()),
			zap.Int("links", links.Count()),
		)

		hdlcFactory := func(conn padapter.Conn) padapter.Adapter {
			a := hdlc.NewAdapter(func(frame []byte) {
				links.Touch(conn.ID(), time.Now())
				d.HandleFrame(ctx, frame)
			})
			a.OnDrop(func(n int) {
				if appm != nil {
					appm.HDLCDropped.Add(float64(n))
				}
			})
			return a
		}
		tcpserver.NewMux(logger, hdlcFactory).BindToConn(cc)

		go func() {
			<-cc.Done()
			links.Unbind(id)
			st := cc.Stats()
			logger.Info("coordinator link closed",
				zap.Uint64("conn_id", id),
				zap.Int("links", links.Count()),
				zap.Uint64("bytes_in", st.BytesIn),
				zap.Uint64("frames_out", st.FramesOut),
				zap.Duration("uptime", time.Since(st.Since)),
			)
		}()
	}
}
