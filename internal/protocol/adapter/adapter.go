// Package adapter 桥接连接上的链路层解码器契约
package adapter

// Adapter 由复用器按首包前缀选中后独占该连接的字节流。
// ProcessBytes 自行处理半包与粘包。
type Adapter interface {
	Name() string
	Sniff(prefix []byte) bool
	ProcessBytes(p []byte) error
}

// Factory 每个连接一个实例，解码缓冲不跨连接
type Factory func(conn Conn) Adapter

type Conn interface {
	ID() uint64
	Write(b []byte) error
}
