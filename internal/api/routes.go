package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/api/middleware"
)

// RegisterRoutes 注册 /api/v1 路由组
func RegisterRoutes(r *gin.Engine, dpaH *DPAHandler, nodeH *NodeHandler, authCfg middleware.AuthConfig, logger *zap.Logger) *gin.RouterGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequestTracing())
	if authCfg.Enabled {
		v1.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	v1.POST("/dpa", dpaH.Send)
	v1.GET("/dpa/:msgId", dpaH.Get)
	v1.GET("/dpa/:msgId/journal", dpaH.Journal)
	v1.GET("/exchanges", dpaH.Recent)

	v1.GET("/nodes", nodeH.ListNodes)
	v1.GET("/nodes/:addr", nodeH.GetNode)
	v1.GET("/catalog", nodeH.Catalog)
	v1.GET("/link", nodeH.Link)

	logger.Info("api routes registered", zap.Int("endpoints", 8))
	return v1
}
