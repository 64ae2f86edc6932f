// lock_tx.go: warden.DatabaseLockAdapter over the warden_locks table
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agilira/warden"
)

// LockStore implements warden.DatabaseLockAdapter against warden_locks.
type LockStore struct {
	store *Store
}

// NewLockStore returns a warden.DatabaseLockAdapter backed by store.
func NewLockStore(store *Store) *LockStore { return &LockStore{store: store} }

// WithTransaction implements warden.DatabaseLockAdapter.
func (s *LockStore) WithTransaction(ctx context.Context, key string, fn func(tx warden.DatabaseLockTx) error) error {
	tx, err := s.store.beginImmediate(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&lockTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	committed = true
	return nil
}

type lockTx struct {
	tx *sql.Tx
}

func (t *lockTx) Find(ctx context.Context, key string) (*warden.LockRecord, error) {
	var owner string
	var expMs sql.NullInt64
	err := t.tx.QueryRowContext(ctx,
		`SELECT owner, exp_ms FROM warden_locks WHERE key = ?`, key,
	).Scan(&owner, &expMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find lock: %w", err)
	}
	rec := &warden.LockRecord{Owner: owner}
	if expMs.Valid {
		t := time.UnixMilli(expMs.Int64)
		rec.Expiration = &t
	}
	return rec, nil
}

func (t *lockTx) Upsert(ctx context.Context, key string, rec warden.LockRecord) error {
	var expArg interface{}
	if rec.Expiration != nil {
		expArg = rec.Expiration.UnixMilli()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO warden_locks (key, owner, exp_ms) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET owner = excluded.owner, exp_ms = excluded.exp_ms`,
		key, rec.Owner, expArg,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: upsert lock: %w", err)
	}
	return nil
}

func (t *lockTx) Delete(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM warden_locks WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: delete lock: %w", err)
	}
	return nil
}

var _ warden.DatabaseLockAdapter = (*LockStore)(nil)
var _ warden.DatabaseLockTx = (*lockTx)(nil)
