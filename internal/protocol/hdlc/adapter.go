package hdlc

// FrameHandler 收到一个完整 DPA 帧时回调
type FrameHandler func(frame []byte)

// Adapter 协调器桥接链路适配器：HDLC 流式解码后交给 handler
type Adapter struct {
	decoder *StreamDecoder
	handler FrameHandler
	onDrop  func(n int)
}

// NewAdapter 创建适配器，每个连接一个实例
func NewAdapter(h FrameHandler) *Adapter {
	return &Adapter{decoder: NewStreamDecoder(), handler: h}
}

// OnDrop 设置丢帧回调，n 为本次新增丢弃数
func (a *Adapter) OnDrop(fn func(n int)) { a.onDrop = fn }

// ProcessBytes 处理原始字节流：切分帧并回调
func (a *Adapter) ProcessBytes(p []byte) error {
	before := a.decoder.Dropped()
	frames, err := a.decoder.Feed(p)
	for _, fr := range frames {
		if a.handler != nil {
			a.handler(fr)
		}
	}
	if n := a.decoder.Dropped() - before; n > 0 && a.onDrop != nil {
		a.onDrop(n)
	}
	return err
}

// Name 协议标记
func (a *Adapter) Name() string { return "hdlc" }

// Sniff 首字节为 Flag 即认为是 HDLC 链路
func (a *Adapter) Sniff(prefix []byte) bool {
	return len(prefix) > 0 && prefix[0] == Flag
}

// Dropped 校验失败被丢弃的帧数
func (a *Adapter) Dropped() int { return a.decoder.Dropped() }
