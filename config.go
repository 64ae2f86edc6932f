// config.go: ambient configuration for a warden Provider
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"time"

	"github.com/google/uuid"
)

// Config holds the ambient settings shared by every primitive a Provider
// mints: namespace, default timings, and the pluggable collaborators
// (clock, logger, metrics, events, id generation). It does not carry
// storage adapters - those live on ProviderConfig alongside Config.
type Config struct {
	// Namespace prefixes every key minted by the Provider. Default: DefaultNamespace.
	Namespace string

	// DefaultBlockingTime bounds how long a blocking acquire waits before
	// giving up, when the caller does not supply its own. Default: DefaultBlockingTime.
	DefaultBlockingTime time.Duration

	// DefaultBlockingInterval is the poll interval used by a blocking
	// acquire. Default: DefaultBlockingInterval.
	DefaultBlockingInterval time.Duration

	// DefaultRefreshTime is the TTL applied by a refresh call that omits one.
	// Default: DefaultRefreshTime.
	DefaultRefreshTime time.Duration

	// DefaultSemaphoreLimit is the slot count used when a semaphore or
	// shared-lock reader set is minted without an explicit limit.
	// Default: DefaultSemaphoreLimit.
	DefaultSemaphoreLimit int

	// Clock supplies current time to every primitive. If nil, a
	// go-timecache-backed clock is used. Default: cachedClock{}.
	Clock Clock

	// Logger is used for debugging and monitoring. If nil, NoOpLogger is used.
	Logger Logger

	// MetricsCollector collects per-operation outcome metrics. If nil,
	// NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector

	// EventDispatcher receives every primitive's lifecycle events. If nil,
	// the default in-process dispatcher is created.
	EventDispatcher EventDispatcher

	// IDGenerator mints owner/slot identities when a caller does not
	// supply one explicitly. If nil, a uuid.NewString()-backed generator is used.
	IDGenerator IDGenerator
}

// Validate normalizes zero-valued fields to documented defaults. It never
// returns a non-nil error today - it exists as a public hook mirroring
// the teacher's Config.Validate so callers can normalize a Config before
// constructing a Provider without minting one first.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.DefaultBlockingTime <= 0 {
		c.DefaultBlockingTime = DefaultBlockingTime
	}
	if c.DefaultBlockingInterval <= 0 {
		c.DefaultBlockingInterval = DefaultBlockingInterval
	}
	if c.DefaultRefreshTime <= 0 {
		c.DefaultRefreshTime = DefaultRefreshTime
	}
	if c.DefaultSemaphoreLimit <= 0 {
		c.DefaultSemaphoreLimit = DefaultSemaphoreLimit
	}
	if c.Clock == nil {
		c.Clock = cachedClock{}
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
	if c.EventDispatcher == nil {
		c.EventDispatcher = NewEventDispatcher()
	}
	if c.IDGenerator == nil {
		c.IDGenerator = uuidGenerator{}
	}
	return nil
}

// DefaultConfig returns a Config with every field normalized to its default.
func DefaultConfig() Config {
	c := Config{}
	_ = c.Validate()
	return c
}

// uuidGenerator is the default IDGenerator, backed by google/uuid.
type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }
