package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

// Server 协调器桥接 TCP 服务：每个连接承载一条 HDLC 字节流
type Server struct {
	cfg    cfgpkg.TCPConfig
	logger *zap.Logger

	ln    net.Listener
	wg    sync.WaitGroup
	stopC chan struct{}
	stop  sync.Once

	nextConnID uint64
	conns      sync.Map // id -> *ConnContext

	gate *Admission

	onConn func(*ConnContext)
	// 可选指标回调
	onAccept    func()
	onReject    func(reason RejectReason)
	onRecvBytes func(n int)
}

// New 创建桥接服务
func New(cfg cfgpkg.TCPConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		stopC:  make(chan struct{}),
		gate:   NewAdmission(cfg.MaxConnections, time.Second, cfg.AcceptRate, cfg.AcceptBurst),
	}
	return s
}

// SetConnHandler 设置新连接回调，在读循环启动前调用，用于安装 onRead
func (s *Server) SetConnHandler(h func(*ConnContext)) { s.onConn = h }

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onRecvBytes func(int)) {
	s.onAccept, s.onRecvBytes = onAccept, onRecvBytes
}

// SetRejectCallback 接入被拒绝时回调
func (s *Server) SetRejectCallback(fn func(reason RejectReason)) { s.onReject = fn }

// Start 监听并接受连接（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("bridge listener started", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr 实际监听地址，端口为 0 时用于获取分配端口
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// 短暂错误等待后重试
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if reason, ok := s.gate.Admit(context.Background()); !ok {
			s.logger.Warn("bridge connection rejected",
				zap.String("remote", c.RemoteAddr().String()),
				zap.String("reason", string(reason)),
				zap.Int("max_connections", s.gate.Max()))
			_ = c.Close()
			if s.onReject != nil {
				s.onReject(reason)
			}
			continue
		}
		if s.onAccept != nil {
			s.onAccept()
		}

		cc := newConnContext(s, c)
		s.conns.Store(cc.ID(), cc)
		if s.onConn != nil {
			s.onConn(cc)
		}
		s.logger.Info("bridge connected", zap.Uint64("conn_id", cc.ID()), zap.String("remote", c.RemoteAddr().String()))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.gate.Release()
			defer s.conns.Delete(cc.ID())
			cc.run()
			s.logger.Info("bridge disconnected", zap.Uint64("conn_id", cc.ID()))
		}()
	}
}

// Shutdown 优雅关闭监听并等待连接退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop.Do(func() { close(s.stopC) })
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.conns.Range(func(_, v any) bool {
		_ = v.(*ConnContext).Close()
		return true
	})
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// ActiveConnections 当前桥接连接数
func (s *Server) ActiveConnections() int { return s.gate.Active() }

func (s *Server) MaxConnections() int { return s.gate.Max() }

// AdmissionStats 接入限速与槽位统计
func (s *Server) AdmissionStats() AdmissionStats { return s.gate.Stats() }

func (s *Server) readTimeout() time.Duration  { return s.cfg.ReadTimeout }
func (s *Server) writeTimeout() time.Duration { return s.cfg.WriteTimeout }
