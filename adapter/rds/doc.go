// Package rds provides a Redis-backed implementation of warden's direct
// storage adapter contracts (LockAdapter, SemaphoreAdapter,
// SharedLockAdapter).
//
// Atomicity is provided by Lua scripts (EVAL), not by go-redis's
// TxPipeline: the lock/semaphore contracts require a check-then-set
// compare against the current owner/slot state that a pipeline of
// independent commands cannot express atomically. Every record is
// stored as a Redis hash so expirations can be pruned lazily without a
// round-trip through JSON encode/decode, and scripts consult Redis
// server time (TIME) rather than the caller's clock so a fleet of
// warden processes with skewed local clocks still agree on expiration.
//
// This package is a separate module from the core so that applications
// which don't need a Redis backend don't pull in go-redis.
package rds
