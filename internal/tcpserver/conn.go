package tcpserver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("tcpserver: connection closed")
	// ErrWriteQueueFull 写队列在写超时内未腾出空间
	ErrWriteQueueFull = errors.New("tcpserver: write queue timeout")
)

const (
	writeQueueLen       = 32
	readBufSize         = 1024
	defaultQueueTimeout = 5 * time.Second
)

// ConnStats 单条桥接连接的收发统计
type ConnStats struct {
	BytesIn   uint64
	BytesOut  uint64
	FramesOut uint64
	Since     time.Time
	LastRead  time.Time
}

// ConnContext 一条协调器桥接连接：独立的读循环与串行写队列
type ConnContext struct {
	srv  *Server
	conn net.Conn
	id   uint64

	out  chan []byte
	quit chan struct{}
	done chan struct{}
	once sync.Once

	onRead func([]byte)
	proto  atomic.Pointer[string]

	since     time.Time
	bytesIn   atomic.Uint64
	bytesOut  atomic.Uint64
	framesOut atomic.Uint64
	lastRead  atomic.Int64
}

func newConnContext(s *Server, c net.Conn) *ConnContext {
	return &ConnContext{
		srv:   s,
		conn:  c,
		id:    atomic.AddUint64(&s.nextConnID, 1),
		out:   make(chan []byte, writeQueueLen),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		since: time.Now(),
	}
}

// ID 单进程内递增
func (cc *ConnContext) ID() uint64 { return cc.id }

func (cc *ConnContext) RemoteAddr() net.Addr { return cc.conn.RemoteAddr() }

// SetOnRead 安装上行字节回调，须在读循环启动前调用
func (cc *ConnContext) SetOnRead(h func([]byte)) { cc.onRead = h }

// SetProtocol 记录复用器识别出的链路协议
func (cc *ConnContext) SetProtocol(p string) { cc.proto.Store(&p) }

// Protocol 未识别前为空
func (cc *ConnContext) Protocol() string {
	if p := cc.proto.Load(); p != nil {
		return *p
	}
	return ""
}

// Stats 收发统计快照
func (cc *ConnContext) Stats() ConnStats {
	st := ConnStats{
		BytesIn:   cc.bytesIn.Load(),
		BytesOut:  cc.bytesOut.Load(),
		FramesOut: cc.framesOut.Load(),
		Since:     cc.since,
	}
	if ns := cc.lastRead.Load(); ns > 0 {
		st.LastRead = time.Unix(0, ns)
	}
	return st
}

// Write 将一帧放入写队列；队列满时最多等待写超时
func (cc *ConnContext) Write(b []byte) error {
	select {
	case <-cc.quit:
		return ErrConnClosed
	default:
	}
	frame := append([]byte(nil), b...)
	wait := cc.srv.writeTimeout()
	if wait <= 0 {
		wait = defaultQueueTimeout
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case cc.out <- frame:
		return nil
	case <-cc.quit:
		return ErrConnClosed
	case <-t.C:
		return ErrWriteQueueFull
	}
}

// Close 幂等
func (cc *ConnContext) Close() (err error) {
	cc.once.Do(func() {
		close(cc.quit)
		err = cc.conn.Close()
	})
	return err
}

// Done 读写循环全部退出后关闭
func (cc *ConnContext) Done() <-chan struct{} { return cc.done }

// run 阻塞直到连接结束
func (cc *ConnContext) run() {
	defer close(cc.done)

	writerDone := make(chan struct{})
	go cc.writeLoop(writerDone)

	cc.readLoop()
	_ = cc.Close()
	<-writerDone
}

func (cc *ConnContext) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		if to := cc.srv.readTimeout(); to > 0 {
			_ = cc.conn.SetReadDeadline(time.Now().Add(to))
		}
		n, err := cc.conn.Read(buf)
		if n > 0 {
			cc.bytesIn.Add(uint64(n))
			cc.lastRead.Store(time.Now().UnixNano())
			if cc.srv.onRecvBytes != nil {
				cc.srv.onRecvBytes(n)
			}
			if cc.onRead != nil {
				cc.onRead(buf[:n])
			}
		}
		// 空闲超过读超时同样视为链路失效
		if err != nil {
			return
		}
	}
}

func (cc *ConnContext) writeLoop(done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-cc.quit:
			return
		case frame := <-cc.out:
			if to := cc.srv.writeTimeout(); to > 0 {
				_ = cc.conn.SetWriteDeadline(time.Now().Add(to))
			}
			n, err := cc.conn.Write(frame)
			cc.bytesOut.Add(uint64(n))
			if err != nil {
				_ = cc.Close()
				return
			}
			cc.framesOut.Add(1)
		}
	}
}
