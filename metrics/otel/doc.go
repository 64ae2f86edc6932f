// Package otel provides OpenTelemetry integration for warden coordination
// primitive metrics.
//
// This package implements the warden.MetricsCollector interface using
// OpenTelemetry, enabling observability of lock/semaphore/shared-lock
// acquire/release/refresh latency, contention rate, and adapter faults
// across any OTEL-compatible backend (Prometheus, Jaeger, DataDog,
// Grafana).
//
// The package is a separate module so that applications which don't
// need metrics don't pay for the OTEL dependency tree; warden's core
// defaults to a NoOpMetricsCollector when none is configured.
//
// # Quick start
//
//	import (
//	    "github.com/agilira/warden"
//	    wardenotel "github.com/agilira/warden/metrics/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	meterProvider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, err := wardenotel.New(meterProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider, _ := warden.NewInMemoryProvider(warden.Config{MetricsCollector: collector})
//
// # Metrics exposed
//
//   - warden_acquire_latency_ns, warden_release_latency_ns,
//     warden_refresh_latency_ns: histograms tagged by "primitive"
//   - warden_acquired_total, warden_contention_total,
//     warden_released_total, warden_refreshed_total,
//     warden_force_released_total, warden_unexpected_errors_total:
//     counters tagged by "primitive" (and "op" for errors)
package otel
