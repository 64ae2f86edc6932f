// collector.go: OpenTelemetry MetricsCollector for warden
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/warden"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func primitiveAttr(primitive string) attribute.KeyValue { return attribute.String("primitive", primitive) }

func opAttr(op string) attribute.KeyValue { return attribute.String("op", op) }

// Collector implements warden.MetricsCollector using OpenTelemetry,
// recording acquire/release/refresh latencies as histograms and
// contention/error counts as counters. It is a separate module so that
// applications which don't need metrics don't pay for the OTEL
// dependency tree, mirroring the teacher's own otel submodule split.
type Collector struct {
	acquireLatency metric.Int64Histogram
	releaseLatency metric.Int64Histogram
	refreshLatency metric.Int64Histogram

	acquiredTotal   metric.Int64Counter
	contentionTotal metric.Int64Counter
	releasedTotal   metric.Int64Counter
	refreshedTotal  metric.Int64Counter
	forceReleases   metric.Int64Counter
	errorsTotal     metric.Int64Counter
}

// Options configures a Collector.
type Options struct {
	// MeterName is the OpenTelemetry meter name.
	// Default: "github.com/agilira/warden".
	MeterName string
}

// Option is a functional option for New.
type Option func(*Options)

// WithMeterName overrides the default meter name, useful when a process
// hosts more than one Provider and wants to distinguish their metrics.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// New creates a Collector backed by provider. Every coordination
// primitive metric is tagged with a "primitive" attribute (lock,
// semaphore, sharedLock, cache) at record time, not at instrument
// creation, so a single Collector instance serves every primitive a
// warden.Provider mints.
func New(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/warden"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &Collector{}

	var err error
	if c.acquireLatency, err = meter.Int64Histogram(
		"warden_acquire_latency_ns",
		metric.WithDescription("Latency of acquire attempts in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.releaseLatency, err = meter.Int64Histogram(
		"warden_release_latency_ns",
		metric.WithDescription("Latency of release attempts in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.refreshLatency, err = meter.Int64Histogram(
		"warden_refresh_latency_ns",
		metric.WithDescription("Latency of refresh attempts in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.acquiredTotal, err = meter.Int64Counter(
		"warden_acquired_total",
		metric.WithDescription("Total number of successful acquires"),
	); err != nil {
		return nil, err
	}
	if c.contentionTotal, err = meter.Int64Counter(
		"warden_contention_total",
		metric.WithDescription("Total number of acquires that failed due to contention"),
	); err != nil {
		return nil, err
	}
	if c.releasedTotal, err = meter.Int64Counter(
		"warden_released_total",
		metric.WithDescription("Total number of successful releases"),
	); err != nil {
		return nil, err
	}
	if c.refreshedTotal, err = meter.Int64Counter(
		"warden_refreshed_total",
		metric.WithDescription("Total number of successful refreshes"),
	); err != nil {
		return nil, err
	}
	if c.forceReleases, err = meter.Int64Counter(
		"warden_force_released_total",
		metric.WithDescription("Total number of force-release calls that removed a record"),
	); err != nil {
		return nil, err
	}
	if c.errorsTotal, err = meter.Int64Counter(
		"warden_unexpected_errors_total",
		metric.WithDescription("Total number of adapter faults surfaced during any operation"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordAcquire implements warden.MetricsCollector.
func (c *Collector) RecordAcquire(primitive string, latencyNs int64, acquired bool) {
	ctx := context.Background()
	c.acquireLatency.Record(ctx, latencyNs, metric.WithAttributes(primitiveAttr(primitive)))
	if acquired {
		c.acquiredTotal.Add(ctx, 1, metric.WithAttributes(primitiveAttr(primitive)))
	} else {
		c.contentionTotal.Add(ctx, 1, metric.WithAttributes(primitiveAttr(primitive)))
	}
}

// RecordRelease implements warden.MetricsCollector.
func (c *Collector) RecordRelease(primitive string, latencyNs int64, released bool) {
	ctx := context.Background()
	c.releaseLatency.Record(ctx, latencyNs, metric.WithAttributes(primitiveAttr(primitive)))
	if released {
		c.releasedTotal.Add(ctx, 1, metric.WithAttributes(primitiveAttr(primitive)))
	}
}

// RecordRefresh implements warden.MetricsCollector.
func (c *Collector) RecordRefresh(primitive string, latencyNs int64, refreshed bool) {
	ctx := context.Background()
	c.refreshLatency.Record(ctx, latencyNs, metric.WithAttributes(primitiveAttr(primitive)))
	if refreshed {
		c.refreshedTotal.Add(ctx, 1, metric.WithAttributes(primitiveAttr(primitive)))
	}
}

// RecordForceRelease implements warden.MetricsCollector.
func (c *Collector) RecordForceRelease(primitive string, released bool) {
	if !released {
		return
	}
	c.forceReleases.Add(context.Background(), 1, metric.WithAttributes(primitiveAttr(primitive)))
}

// RecordContention implements warden.MetricsCollector.
func (c *Collector) RecordContention(primitive string) {
	c.contentionTotal.Add(context.Background(), 1, metric.WithAttributes(primitiveAttr(primitive)))
}

// RecordUnexpectedError implements warden.MetricsCollector.
func (c *Collector) RecordUnexpectedError(primitive string, op string) {
	c.errorsTotal.Add(context.Background(), 1, metric.WithAttributes(primitiveAttr(primitive), opAttr(op)))
}

var _ warden.MetricsCollector = (*Collector)(nil)
