// Package metrics 提供 Prometheus helper，包含各服务共用的 counter/histogram 模板
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics 指标集合，每个实例持有独立的 registry
type Metrics struct {
	registry *prometheus.Registry

	// gRPC 请求计数（method, code）
	GRPCRequestsTotal *prometheus.CounterVec
	// gRPC 请求耗时（method）
	GRPCRequestDuration *prometheus.HistogramVec
	// HTTP 请求计数（method, path, status）
	HTTPRequestsTotal *prometheus.CounterVec

	// 业务指标
	// 结算结果（result: confirmed, rejected, unavailable, unauthenticated）
	PurchasesTotal *prometheus.CounterVec
	// 已售出商品件数
	ProductsPurchased prometheus.Counter
	// 库存批量更新结果（result: applied, not_found, insufficient）
	InventoryBatches *prometheus.CounterVec
	// 已完成打分的推荐请求数
	RecommendationsScored prometheus.Counter
	// 长连接流消息（stream, outcome: sent, received, dropped, skipped）
	StreamMessages *prometheus.CounterVec
	// 长连接流重连次数（stream）
	StreamReconnects *prometheus.CounterVec
}

// New 创建并注册指标实例
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "grpc_requests_total",
			Help:        "Total gRPC requests",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),

		PurchasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "purchases_total",
			Help:        "Purchase confirmations by result",
			ConstLabels: labels,
		}, []string{"result"}),
		ProductsPurchased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "products_purchased_total",
			Help:        "Units sold through confirmed purchases",
			ConstLabels: labels,
		}),
		InventoryBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "inventory_batches_total",
			Help:        "Quantity update batches by result",
			ConstLabels: labels,
		}, []string{"result"}),
		RecommendationsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "recommendations_scored_total",
			Help:        "Recommendation requests scored",
			ConstLabels: labels,
		}),
		StreamMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stream_messages_total",
			Help:        "Long-lived stream messages by outcome",
			ConstLabels: labels,
		}, []string{"stream", "outcome"}),
		StreamReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stream_reconnects_total",
			Help:        "Long-lived stream reopen attempts",
			ConstLabels: labels,
		}, []string{"stream"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.HTTPRequestsTotal,
		m.PurchasesTotal,
		m.ProductsPurchased,
		m.InventoryBatches,
		m.RecommendationsScored,
		m.StreamMessages,
		m.StreamReconnects,
	)
	return m
}

// Handler 返回 Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
