// store.go: SQLite-backed store shared by the lock and semaphore CRUD tx adapters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns a *sql.DB and the prepared schema both the lock and
// semaphore transaction adapters read and write. One Store can back a
// warden.DatabaseLockAdapter and a warden.DatabaseSemaphoreAdapter
// simultaneously, since the two live in disjoint tables.
type Store struct {
	db *sql.DB
}

// Open creates a Store against dataSourceName, appending the
// "_txlock=immediate" driver parameter used by WithTransaction so every
// transaction takes its row lock at BEGIN rather than on first write.
// Pass "file::memory:?cache=shared" for an in-process, in-memory store
// suitable for tests.
func Open(dataSourceName string) (*Store, error) {
	dsn := dataSourceName
	sep := "?"
	if containsQuery(dsn) {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	// A shared in-memory database is only visible across connections
	// while at least one stays open; a single connection also sidesteps
	// SQLite's single-writer limitation under our own transaction
	// discipline.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func containsQuery(dsn string) bool {
	for _, c := range dsn {
		if c == '?' {
			return true
		}
	}
	return false
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS warden_locks (
			key TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			exp_ms INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS warden_semaphore_limits (
			key TEXT PRIMARY KEY,
			limit_n INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS warden_semaphore_slots (
			key TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			exp_ms INTEGER,
			PRIMARY KEY (key, slot_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate %q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the underlying *sql.DB.
func (s *Store) Close() error { return s.db.Close() }

// beginImmediate starts a transaction. The driver-level _txlock=immediate
// DSN parameter (set in Open) is what actually turns every BEginTx into a
// BEGIN IMMEDIATE; this wrapper exists so both tx adapters share one
// call site and error message.
func (s *Store) beginImmediate(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: begin: %w", err)
	}
	return tx, nil
}
