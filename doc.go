// Package warden provides distributed coordination primitives - an
// exclusive Lock, a counting Semaphore, a shared reader/writer Lock, and a
// TTL-aware secondary Cache - layered over a swappable storage adapter.
//
// # Overview
//
// Every primitive is minted from a Provider bound to a fixed adapter set:
//
//	provider, err := warden.NewInMemoryProvider(warden.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	lock := provider.Lock("jobs:nightly-export", "")
//	if err := lock.AcquireOrFail(ctx, nil); err != nil {
//		// contention (ErrKeyAlreadyAcquired) or adapter fault
//	}
//	defer lock.Release(ctx)
//
// # Primitives
//
//   - Lock: single-owner mutual exclusion with optional TTL and refresh.
//   - Semaphore: bounded counting lock; N idempotent slot holders share a
//     key under a limit frozen at first acquire.
//   - SharedLock: one writer XOR any number of bounded readers over the
//     same key, never both at once.
//   - Cache: TTL-aware key/value store with atomic Add/Update/Put/Remove/
//     Increment/Decrement and a singleflight-backed GetOrSet.
//
// # Storage adapters
//
// warden ships one in-process adapter (MemoryAdapter) implementing every
// primitive's direct contract. Database-backed adapters (transactional
// CRUD over a SQL connection) are normalized to the same direct shape by
// the Provider at construction time. Backend-specific implementations
// live in optional submodules: adapter/rds (Redis) and adapter/sqlstore
// (SQLite via database/sql).
//
// # Events
//
// Every acquire outcome (acquired or not available), and every successful
// release, refresh, and force-release, emits an Event to the Provider's
// EventDispatcher (in-process by default). Dispatch is
// fire-and-forget and per-handle-ordered: events from a single handle are
// delivered to listeners in the order they were emitted, but Emit never
// blocks the caller on listener execution.
//
// # Errors
//
// Primitive operations report contention, ownership, and adapter faults as
// a structured *errors.Error from github.com/agilira/go-errors, carrying a
// WARDEN_* code, context map, and retryability hint. Context cancellation
// (ctx.Err()) and errors returned by caller-supplied functions (Run bodies,
// GetOrSet loaders) are returned unchanged. Use warden.GetErrorCode, warden.IsRetryable, and the
// IsXxx predicate helpers in errors.go rather than comparing error values
// directly.
//
// # Observability
//
// Logger and MetricsCollector are zero-overhead interfaces defaulting to
// no-ops. The optional logging/zap and metrics/otel submodules adapt
// go.uber.org/zap and go.opentelemetry.io/otel respectively.
//
// # Configuration
//
// Config.Validate normalizes zero-valued fields (namespace, default
// timings, clock, logger, metrics, dispatcher, id generator) to documented
// defaults; DefaultConfig returns an already-normalized Config. A running
// Provider's default timings can be hot-reloaded from a config file via
// ProviderHotConfig, without reconstructing its adapters.
package warden
