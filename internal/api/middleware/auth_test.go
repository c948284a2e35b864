package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(cfg AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTracing(), APIKeyAuth(cfg, zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKeys: []string{"sk_test_123456"}}
	tests := []struct {
		name   string
		header map[string]string
		query  string
		code   int
	}{
		{"缺少Key", nil, "", http.StatusUnauthorized},
		{"无效Key", map[string]string{"X-API-Key": "bad"}, "", http.StatusForbidden},
		{"X-API-Key", map[string]string{"X-API-Key": "sk_test_123456"}, "", http.StatusOK},
		{"Bearer", map[string]string{"Authorization": "Bearer sk_test_123456"}, "", http.StatusOK},
		{"Query", nil, "?apiKey=sk_test_123456", http.StatusOK},
	}
	r := newRouter(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	t.Run("未启用放行", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(AuthConfig{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestTracing(t *testing.T) {
	r := newRouter(AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_t****3456", maskAPIKey("sk_test_123456"))
}

func TestKeyring(t *testing.T) {
	kr := newKeyring([]string{"", " sk_a ", "sk_b"})
	assert.Len(t, kr, 2)
	assert.True(t, kr.contains("sk_a"))
	assert.True(t, kr.contains("sk_b"))
	assert.False(t, kr.contains(""))
	assert.False(t, kr.contains("sk_c"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTracing(), AccessLog(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
	}
}
