package tcpserver

import (
	"go.uber.org/zap"

	padapter "github.com/taoyao-code/iqrf-gateway/internal/protocol/adapter"
)

// sniffLen 首包初判所取前缀长度
const sniffLen = 8

// Mux 链路协议复用器：首包初判 -> 绑定协议 -> 直通处理
type Mux struct {
	factories []padapter.Factory
	logger    *zap.Logger
}

// NewMux 按优先级传入适配器工厂
func NewMux(logger *zap.Logger, factories ...padapter.Factory) *Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mux{factories: factories, logger: logger}
}

// BindToConn 为连接安装 onRead，根据首包前缀判断协议后固定处理路径。
// 前缀不匹配任何适配器的字节被丢弃，直到出现可识别的前缀。
func (m *Mux) BindToConn(cc *ConnContext) {
	adapters := make([]padapter.Adapter, 0, len(m.factories))
	for _, f := range m.factories {
		adapters = append(adapters, f(cc))
	}

	var bound padapter.Adapter
	cc.SetOnRead(func(p []byte) {
		if bound == nil {
			pref := p
			if len(pref) > sniffLen {
				pref = pref[:sniffLen]
			}
			for _, a := range adapters {
				if a.Sniff(pref) {
					bound = a
					cc.SetProtocol(a.Name())
					m.logger.Info("link protocol identified",
						zap.Uint64("conn_id", cc.ID()),
						zap.String("protocol", a.Name()),
					)
					break
				}
			}
			if bound == nil {
				m.logger.Debug("unknown link prefix dropped",
					zap.Uint64("conn_id", cc.ID()),
					zap.Int("len", len(p)),
				)
				return
			}
		}
		if err := bound.ProcessBytes(p); err != nil {
			m.logger.Warn("link decode error",
				zap.Uint64("conn_id", cc.ID()),
				zap.String("protocol", bound.Name()),
				zap.Error(err),
			)
		}
	})
}
