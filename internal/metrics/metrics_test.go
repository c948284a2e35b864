package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)

	m.DPAEncodeTotal.WithLabelValues("iqrfEmbedOs_Read").Inc()
	m.DPARCodeTotal.WithLabelValues("STATUS_NO_ERROR").Add(2)
	m.PendingRequests.Set(3)
	m.TCPRejected.WithLabelValues("rate").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dpa_pending_requests 3")
	assert.Contains(t, rec.Body.String(), `dpa_encode_total{mtype="iqrfEmbedOs_Read"} 1`)
	assert.Contains(t, rec.Body.String(), `dpa_rcode_total{rcode="STATUS_NO_ERROR"} 2`)
	assert.Contains(t, rec.Body.String(), `tcp_rejected_total{reason="rate"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
