// Package sqlstore provides a database/sql-backed implementation of
// warden's CRUD-oriented DatabaseLockAdapter and DatabaseSemaphoreAdapter
// contracts, exercised by SQLite via github.com/mattn/go-sqlite3.
//
// Atomicity comes from a host-driven transaction rather than a single
// atomic primitive call, per spec.md's "database adapter" flavor: each
// WithTransaction call opens a BEGIN IMMEDIATE transaction (via the
// mattn driver's _txlock=immediate DSN parameter) so the row lock is
// taken up front instead of being upgraded mid-transaction, avoiding the
// SQLITE_BUSY retries a deferred transaction would hit under contention.
// warden's provider.go normalizes this CRUD shape to the direct adapter
// interfaces at Provider construction time; no other warden code
// branches on adapter shape.
package sqlstore
