package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics: метрики конвейера создания заказов. Методы безопасны для nil.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	rejections     *prometheus.CounterVec
	createDuration *prometheus.HistogramVec
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderdesk_orders_created_total",
			Help: "Total number of orders created",
		}),
		rejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderdesk_order_rejections_total",
			Help: "Total number of rejected order creation requests by reason",
		}, []string{"reason"}),
		createDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderdesk_order_create_duration_seconds",
			Help:    "Duration of the order creation pipeline in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"result"}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordRejection фиксирует отказ с кодом причины.
func (m *OrderMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordCreateDuration записывает длительность конвейера; result: created|rejected|error.
func (m *OrderMetrics) RecordCreateDuration(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.createDuration.WithLabelValues(result).Observe(duration.Seconds())
}
