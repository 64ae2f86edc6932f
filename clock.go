// clock.go: time abstraction for warden primitives
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Clock provides the current time to every primitive. Tests inject a fake
// implementation; production code defaults to a cached system clock the
// same way the teacher's systemTimeProvider wraps go-timecache.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// cachedClock is the default Clock, backed by go-timecache for low-overhead
// reads on the hot path of every acquire/refresh/getState call.
type cachedClock struct{}

func (cachedClock) Now() time.Time {
	return time.Unix(0, timecache.CachedTimeNano())
}

// SystemClock returns the default go-timecache-backed Clock, exported so
// out-of-module storage adapters (e.g. the sqlstore and rds submodules)
// can normalize a database adapter without constructing a full Provider.
func SystemClock() Clock { return cachedClock{} }

// FixedClock is a Clock that always returns the same instant. It is useful
// for deterministic tests of TTL and expiration behavior.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// OffsetClock wraps a base clock and adds a fixed offset to every read,
// letting tests simulate the passage of time without sleeping.
type OffsetClock struct {
	Base   Clock
	Offset time.Duration
}

func (c *OffsetClock) Now() time.Time { return c.Base.Now().Add(c.Offset) }

// Advance moves the simulated clock forward by d.
func (c *OffsetClock) Advance(d time.Duration) { c.Offset += d }
