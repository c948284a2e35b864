package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/iqrf-gateway/internal/metrics"
)

// NewMetrics 初始化注册表、业务指标与构建信息
func NewMetrics(version, instance string) (*prometheus.Registry, *metrics.AppMetrics) {
	reg := metrics.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "iqrf_gateway_build_info",
		Help:        "Gateway build and instance information.",
		ConstLabels: prometheus.Labels{"version": version, "instance": instance},
	}, func() float64 { return 1 }))
	return reg, metrics.NewAppMetrics(reg)
}
