// timespan.go: duration arithmetic for TTLs and end-dates
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"fmt"
	"time"
)

// TimeSpan is a non-negative duration used throughout warden for TTLs,
// blocking windows, and remaining-time results. A nil *TimeSpan means
// "no expiration" per the spec's TTL=null convention.
type TimeSpan struct {
	d time.Duration
}

// NewTimeSpan builds a TimeSpan from a duration, clamping negative input to zero.
func NewTimeSpan(d time.Duration) TimeSpan {
	if d < 0 {
		d = 0
	}
	return TimeSpan{d: d}
}

// AddMilliseconds returns a new TimeSpan with ms milliseconds added.
func (t TimeSpan) AddMilliseconds(ms int64) TimeSpan {
	return NewTimeSpan(t.d + time.Duration(ms)*time.Millisecond)
}

// DivideBy returns a new TimeSpan scaled by 1/n. DivideBy(0) returns the
// zero TimeSpan rather than panicking, since a blocking interval of zero
// is a meaningful (if aggressive) polling configuration.
func (t TimeSpan) DivideBy(n int64) TimeSpan {
	if n == 0 {
		return TimeSpan{}
	}
	return NewTimeSpan(t.d / time.Duration(n))
}

// ToDuration returns the underlying time.Duration.
func (t TimeSpan) ToDuration() time.Duration { return t.d }

// TotalMilliseconds returns the span expressed in whole milliseconds.
func (t TimeSpan) TotalMilliseconds() int64 { return t.d.Milliseconds() }

// IsZero reports whether the span is exactly zero.
func (t TimeSpan) IsZero() bool { return t.d == 0 }

// EndDate returns the absolute instant the span's duration after now, using
// the supplied clock. It is the "end-date calculation from an implicit
// now" operation named in the spec's data model.
func (t TimeSpan) EndDate(clock Clock) time.Time {
	return clock.Now().Add(t.d)
}

func (t TimeSpan) String() string {
	return fmt.Sprintf("%s", t.d)
}

// expirationFromTTL converts an optional TTL (nil meaning unexpireable)
// into an optional absolute expiration time using the given clock.
func expirationFromTTL(ttl *time.Duration, clock Clock) *time.Time {
	if ttl == nil {
		return nil
	}
	span := NewTimeSpan(*ttl)
	end := span.EndDate(clock)
	return &end
}

// remainingTime computes the TimeSpan left until expiration, or nil if the
// record is unexpireable (expiration == nil) or already expired.
func remainingTime(expiration *time.Time, clock Clock) *TimeSpan {
	if expiration == nil {
		return nil
	}
	remaining := expiration.Sub(clock.Now())
	if remaining <= 0 {
		return nil
	}
	span := NewTimeSpan(remaining)
	return &span
}

// isExpired reports whether an optional expiration has passed as of now.
// A nil expiration never expires.
func isExpired(expiration *time.Time, clock Clock) bool {
	if expiration == nil {
		return false
	}
	return clock.Now().After(*expiration)
}
