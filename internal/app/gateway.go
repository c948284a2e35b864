package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/gateway"
)

// LoadTimingProfiles 内置提示叠加配置文件；文件读取失败时回退内置值
func LoadTimingProfiles(cfg cfgpkg.GatewayConfig, log *zap.Logger) *gateway.TimingProfiles {
	profiles := gateway.DefaultTimingProfiles()
	if cfg.TimingProfilePath == "" {
		return profiles
	}
	loaded, err := gateway.LoadTimingProfiles(cfg.TimingProfilePath)
	if err != nil {
		log.Warn("load timing profiles failed, using built-in", zap.String("path", cfg.TimingProfilePath), zap.Error(err))
		return profiles
	}
	profiles.Merge(loaded)
	log.Info("timing profiles loaded",
		zap.String("path", cfg.TimingProfilePath),
		zap.Int("profiles", len(loaded.Profiles)))
	return profiles
}
