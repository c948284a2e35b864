package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 网关业务指标
type AppMetrics struct {
	TCPAccepted      prometheus.Counter
	TCPBytesReceived prometheus.Counter
	TCPRejected      *prometheus.CounterVec // labels: reason=rate|full
	HDLCDropped      prometheus.Counter
	DPAEncodeTotal   *prometheus.CounterVec // labels: mtype
	DPADecodeTotal   *prometheus.CounterVec // labels: result=ok|error|unknown
	DPARCodeTotal    *prometheus.CounterVec // labels: rcode
	PendingRequests  prometheus.Gauge
	WSClients        prometheus.Gauge
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_accept_total",
			Help: "Total accepted coordinator bridge connections.",
		}),
		TCPBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_bytes_received_total",
			Help: "Total bytes received from coordinator bridges.",
		}),
		TCPRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcp_rejected_total",
			Help: "Coordinator bridge connections rejected at admission, by reason.",
		}, []string{"reason"}),
		HDLCDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hdlc_dropped_frames_total",
			Help: "HDLC frames dropped on CRC or escape errors.",
		}),
		DPAEncodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dpa_encode_total",
			Help: "DPA requests encoded and sent, by message type.",
		}, []string{"mtype"}),
		DPADecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dpa_decode_total",
			Help: "DPA response frames decoded, by result.",
		}, []string{"result"}),
		DPARCodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dpa_rcode_total",
			Help: "DPA responses by response code.",
		}, []string{"rcode"}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dpa_pending_requests",
			Help: "Requests waiting for a coordinator response.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Connected websocket API clients.",
		}),
	}
	reg.MustRegister(m.TCPAccepted, m.TCPBytesReceived, m.TCPRejected, m.HDLCDropped, m.DPAEncodeTotal,
		m.DPADecodeTotal, m.DPARCodeTotal, m.PendingRequests, m.WSClients)
	return m
}
