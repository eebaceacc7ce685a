package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewCheckoutMetrics(t *testing.T) {
	m := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	if m.ordersStarted == nil {
		t.Error("ordersStarted counter should not be nil")
	}
	if m.ordersCommitted == nil {
		t.Error("ordersCommitted counter should not be nil")
	}
	if m.ordersRolledBack == nil {
		t.Error("ordersRolledBack counter should not be nil")
	}
	if m.rollbackFailures == nil {
		t.Error("rollbackFailures counter should not be nil")
	}
	if m.stockRejections == nil {
		t.Error("stockRejections counter should not be nil")
	}
	if m.orderDuration == nil {
		t.Error("orderDuration histogram should not be nil")
	}
	if m.lineItems == nil {
		t.Error("lineItems histogram should not be nil")
	}
}

func TestCheckoutMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordOrderStarted()
	m.RecordOrderStarted()
	m.RecordOrderCommitted(3)
	m.RecordOrderRolledBack()
	m.RecordRollbackFailed()
	m.RecordStockRejection()
	m.RecordOrderDuration(250 * time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counters := map[string]float64{}
	var lineItemsSampleCount uint64
	for _, family := range families {
		switch family.GetType() {
		case dto.MetricType_COUNTER:
			counters[family.GetName()] = family.GetMetric()[0].GetCounter().GetValue()
		case dto.MetricType_HISTOGRAM:
			if family.GetName() == "deptstore_order_line_items" {
				lineItemsSampleCount = family.GetMetric()[0].GetHistogram().GetSampleCount()
			}
		}
	}

	expect := map[string]float64{
		"deptstore_orders_started_total":          2,
		"deptstore_orders_committed_total":        1,
		"deptstore_orders_rolled_back_total":      1,
		"deptstore_order_rollback_failures_total": 1,
		"deptstore_stock_rejections_total":        1,
	}
	for name, want := range expect {
		if got := counters[name]; got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
	if lineItemsSampleCount != 1 {
		t.Errorf("line items histogram: expected 1 sample, got %d", lineItemsSampleCount)
	}
}

func TestCheckoutMetrics_ReregisterIsTolerated(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newCheckoutMetricsWithRegisterer(registry)
	second := newCheckoutMetricsWithRegisterer(registry)

	if first.ordersStarted != second.ordersStarted {
		t.Error("expected re-registration to reuse the existing collector")
	}
}
