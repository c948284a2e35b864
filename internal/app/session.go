package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/session"
)

// NewLinkManager 协调器链路管理；桥接读超时即链路静默上限
func NewLinkManager(cfg cfgpkg.TCPConfig, logger *zap.Logger) session.LinkManager {
	logger.Info("using memory link manager", zap.Duration("timeout", cfg.ReadTimeout))
	return session.New(cfg.ReadTimeout)
}
