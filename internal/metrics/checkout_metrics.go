package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики оформления заказов.
type CheckoutMetrics struct {
	// Счётчики исходов
	ordersStarted    prometheus.Counter
	ordersCommitted  prometheus.Counter
	ordersRolledBack prometheus.Counter
	rollbackFailures prometheus.Counter
	stockRejections  prometheus.Counter

	// Гистограммы
	orderDuration prometheus.Histogram
	lineItems     prometheus.Histogram
}

// NewCheckoutMetrics создаёт метрики в default-регистре Prometheus.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "deptstore_orders_started_total",
			Help: "Total number of order placements started",
		}),
		ordersCommitted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "deptstore_orders_committed_total",
			Help: "Total number of orders committed successfully",
		}),
		ordersRolledBack: registerCounter(registerer, prometheus.CounterOpts{
			Name: "deptstore_orders_rolled_back_total",
			Help: "Total number of orders fully rolled back after a failure",
		}),
		rollbackFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "deptstore_order_rollback_failures_total",
			Help: "Total number of rollbacks that themselves failed",
		}),
		stockRejections: registerCounter(registerer, prometheus.CounterOpts{
			Name: "deptstore_stock_rejections_total",
			Help: "Total number of line items rejected by the stock gate",
		}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "deptstore_order_duration_seconds",
			Help:    "Duration of order placement transactions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lineItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "deptstore_order_line_items",
			Help:    "Number of line items per placed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// RecordOrderStarted увеличивает счётчик начатых оформлений.
func (m *CheckoutMetrics) RecordOrderStarted() { m.ordersStarted.Inc() }

// RecordOrderCommitted фиксирует успешный заказ и число его позиций.
func (m *CheckoutMetrics) RecordOrderCommitted(lineCount int) {
	m.ordersCommitted.Inc()
	m.lineItems.Observe(float64(lineCount))
}

// RecordOrderRolledBack увеличивает счётчик откатившихся заказов.
func (m *CheckoutMetrics) RecordOrderRolledBack() { m.ordersRolledBack.Inc() }

// RecordRollbackFailed увеличивает счётчик провалившихся откатов.
func (m *CheckoutMetrics) RecordRollbackFailed() { m.rollbackFailures.Inc() }

// RecordStockRejection увеличивает счётчик отказов складского гейта.
func (m *CheckoutMetrics) RecordStockRejection() { m.stockRejections.Inc() }

// RecordOrderDuration фиксирует длительность оформления.
func (m *CheckoutMetrics) RecordOrderDuration(d time.Duration) {
	m.orderDuration.Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
