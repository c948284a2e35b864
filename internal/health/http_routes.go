package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// RegisterHTTPRoutes 挂载 /health 系列探针
//
//	GET /health/ready        降级仍返回 200
//	GET /health/live         进程存活
//	GET /health              全量报告
//	GET /health/:component   单个组件（coordinator、database、redis）
func RegisterHTTPRoutes(r gin.IRoutes, aggregator *Aggregator) {
	r.GET("/health/ready", func(c *gin.Context) {
		if !aggregator.Ready(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": StatusUnhealthy, "ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": true})
	})

	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true, "uptime": aggregator.Uptime().Truncate(time.Second).String()})
	})

	r.GET("/health", func(c *gin.Context) {
		report := aggregator.Report(c.Request.Context())
		c.JSON(statusCode(report.Status), report)
	})

	r.GET("/health/:component", func(c *gin.Context) {
		name := c.Param("component")
		res, ok := aggregator.Check(c.Request.Context(), name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown component", "component": name})
			return
		}
		c.JSON(statusCode(res.Status), res)
	})
}
