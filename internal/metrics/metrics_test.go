package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	registry := prometheus.NewRegistry()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustRegister() panicked: %v", r)
		}
	}()
	MustRegister(registry)

	// Record values so every metric shows up in Gather()
	RecordDelivery("delivered", 100*time.Millisecond)
	RecordRetry()
	RecordDLQ()
	UpdateQueueDepth(7)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Registry.Gather() error: %v", err)
	}

	expected := []string{
		"paperboy_deliveries_total",
		"paperboy_delivery_duration_seconds",
		"paperboy_retries_total",
		"paperboy_dlq_total",
		"paperboy_queue_depth",
	}

	registered := make(map[string]bool)
	for _, mf := range metricFamilies {
		registered[mf.GetName()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("expected metric %s not found in registry", name)
		}
	}
}

func TestRecordDelivery(t *testing.T) {
	DeliveriesTotal.Reset()

	tests := []struct {
		name   string
		status string
		calls  int
	}{
		{name: "delivered", status: "delivered", calls: 1},
		{name: "requeued", status: "requeued", calls: 3},
		{name: "invalid email", status: "invalid_email", calls: 1},
		{name: "exhausted", status: "exhausted", calls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.calls; i++ {
				RecordDelivery(tt.status, 50*time.Millisecond)
			}

			counter := DeliveriesTotal.WithLabelValues(tt.status)
			if got := testutil.ToFloat64(counter); got != float64(tt.calls) {
				t.Errorf("RecordDelivery() counter = %f, want %f", got, float64(tt.calls))
			}
		})
	}
}

func TestUpdateQueueDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth float64
	}{
		{name: "zero depth", depth: 0},
		{name: "positive depth", depth: 42},
		{name: "large depth", depth: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			UpdateQueueDepth(tt.depth)
			if got := testutil.ToFloat64(QueueDepth); got != tt.depth {
				t.Errorf("UpdateQueueDepth() gauge = %f, want %f", got, tt.depth)
			}
		})
	}
}

func TestMetricNamePrefix(t *testing.T) {
	registry := prometheus.NewRegistry()
	MustRegister(registry)

	RecordDelivery("delivered", time.Millisecond)
	UpdateQueueDepth(1)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Registry.Gather() error: %v", err)
	}
	for _, mf := range metricFamilies {
		if !strings.HasPrefix(mf.GetName(), "paperboy_") {
			t.Errorf("metric name %s does not have expected prefix 'paperboy_'", mf.GetName())
		}
	}
}
