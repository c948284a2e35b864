package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	appmetrics "github.com/taoyao-code/iqrf-gateway/internal/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthzReadyzMetrics(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	reg := appmetrics.NewRegistry()
	srv := New(cfg, "/metrics", appmetrics.Handler(reg), func() bool { return true }, nil)

	tests := []struct {
		path string
		code int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/debug/pprof/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, serve(srv, tt.path).Code)
		})
	}
}

func TestReadyzNotReady(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, func() bool { return false }, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(srv, "/readyz").Code)
}

func TestPprofAndEngine(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", Pprof: cfgpkg.HTTPPprof{Enable: true, Prefix: "/debug/pprof/"}}
	srv := New(cfg, "", nil, nil, nil)
	srv.Engine().GET("/extra", func(c *gin.Context) { c.String(http.StatusOK, "x") })

	assert.Equal(t, http.StatusOK, serve(srv, "/debug/pprof/").Code)
	assert.Equal(t, http.StatusOK, serve(srv, "/extra").Code)
}
