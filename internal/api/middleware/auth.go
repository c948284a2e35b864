// Package middleware gin 中间件：API Key 鉴权、请求 ID 与访问日志
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文键
const (
	CtxAPIKey    = "api_key"
	CtxRequestID = "request_id"
)

// AuthConfig API认证配置
type AuthConfig struct {
	APIKeys []string
	Enabled bool
}

// keyLookup 依次尝试的凭据来源；WebSocket 握手无法自定义 Header 时走 query
var keyLookup = []func(*gin.Context) string{
	func(c *gin.Context) string { return c.GetHeader("X-API-Key") },
	func(c *gin.Context) string {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			return ""
		}
		return token
	},
	func(c *gin.Context) string { return c.Query("apiKey") },
}

type keyring [][]byte

func newKeyring(keys []string) keyring {
	kr := make(keyring, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, []byte(k))
		}
	}
	return kr
}

// contains 对每个候选都做常量时间比较
func (kr keyring) contains(key string) bool {
	found := 0
	for _, k := range kr {
		found |= subtle.ConstantTimeCompare(k, []byte(key))
	}
	return found == 1
}

// APIKeyAuth 缺少凭据 401，凭据无效 403
func APIKeyAuth(cfg AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	kr := newKeyring(cfg.APIKeys)

	return func(c *gin.Context) {
		key := extractAPIKey(c)
		switch {
		case key == "":
			logger.Warn("api auth: missing api key",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing X-API-Key, Authorization: Bearer or apiKey",
			})
		case !kr.contains(key):
			logger.Warn("api auth: invalid api key",
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
				zap.String("api_key_prefix", maskAPIKey(key)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid api key",
			})
		default:
			c.Set(CtxAPIKey, key)
			c.Next()
		}
	}
}

func extractAPIKey(c *gin.Context) string {
	for _, lookup := range keyLookup {
		if k := lookup(c); k != "" {
			return k
		}
	}
	return ""
}

// maskAPIKey 仅保留首尾各 4 位
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
