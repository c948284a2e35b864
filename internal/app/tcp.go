package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/tcpserver"
)

// NewTCPServer 根据配置创建协调器桥接监听
func NewTCPServer(cfg cfgpkg.TCPConfig, log *zap.Logger) *tcpserver.Server {
	return tcpserver.New(cfg, log)
}
