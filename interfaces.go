// interfaces.go: public interfaces for warden
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// MetricsCollector is used for collecting operation metrics (latencies,
// contention rates) across every primitive. If nil, NoOpMetricsCollector
// is used (zero overhead). Use this to integrate with Prometheus, DataDog,
// StatsD, or other monitoring systems via the metrics/otel submodule.
type MetricsCollector interface {
	// RecordAcquire records the outcome and latency of an acquire attempt.
	RecordAcquire(primitive string, latencyNs int64, acquired bool)

	// RecordRelease records the outcome and latency of a release attempt.
	RecordRelease(primitive string, latencyNs int64, released bool)

	// RecordRefresh records the outcome and latency of a refresh attempt.
	RecordRefresh(primitive string, latencyNs int64, refreshed bool)

	// RecordForceRelease records a force-release, whether or not it removed a record.
	RecordForceRelease(primitive string, released bool)

	// RecordContention records a failed acquire due to the key already being held.
	RecordContention(primitive string)

	// RecordUnexpectedError records an adapter fault surfaced during any operation.
	RecordUnexpectedError(primitive string, op string)
}

// NoOpMetricsCollector is a MetricsCollector that does nothing. Used as default.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordAcquire(string, int64, bool)      {}
func (NoOpMetricsCollector) RecordRelease(string, int64, bool)      {}
func (NoOpMetricsCollector) RecordRefresh(string, int64, bool)      {}
func (NoOpMetricsCollector) RecordForceRelease(string, bool)        {}
func (NoOpMetricsCollector) RecordContention(string)                {}
func (NoOpMetricsCollector) RecordUnexpectedError(string, string)   {}

// IDGenerator produces opaque identities used as lock owners or semaphore/
// reader slot ids when the caller does not supply one explicitly.
type IDGenerator interface {
	// NewID returns a fresh, process-unique identity string.
	NewID() string
}
