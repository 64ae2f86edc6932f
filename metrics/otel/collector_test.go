package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNew_NilProvider(t *testing.T) {
	collector, err := New(nil)
	if err == nil {
		t.Fatal("New(nil) should return an error")
	}
	if collector != nil {
		t.Fatal("New(nil) should return a nil collector")
	}
}

func TestNew(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if collector == nil {
		t.Fatal("New() returned nil collector")
	}
}

func TestCollector_RecordAcquire(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordAcquire("lock", 1000, true)
	collector.RecordAcquire("lock", 2000, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	foundLatency, foundAcquired, foundContention := false, false, false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "warden_acquire_latency_ns":
				foundLatency = true
			case "warden_acquired_total":
				foundAcquired = true
			case "warden_contention_total":
				foundContention = true
			}
		}
	}
	if !foundLatency || !foundAcquired || !foundContention {
		t.Fatalf("expected acquire latency/acquired/contention metrics, got latency=%v acquired=%v contention=%v",
			foundLatency, foundAcquired, foundContention)
	}
}

func TestCollector_RecordUnexpectedError(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordUnexpectedError("semaphore", "acquire")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "warden_unexpected_errors_total" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected warden_unexpected_errors_total to be recorded")
	}
}
