// semaphore_tx.go: warden.DatabaseSemaphoreAdapter over the semaphore tables
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

// SemaphoreStore implements warden.DatabaseSemaphoreAdapter against
// warden_semaphore_limits and warden_semaphore_slots.
type SemaphoreStore struct {
	store *Store
}

// NewSemaphoreStore returns a warden.DatabaseSemaphoreAdapter backed by store.
func NewSemaphoreStore(store *Store) *SemaphoreStore { return &SemaphoreStore{store: store} }

// WithTransaction implements warden.DatabaseSemaphoreAdapter.
func (s *SemaphoreStore) WithTransaction(ctx context.Context, key string, fn func(tx warden.DatabaseSemaphoreTx) error) error {
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

	if err := fn(&semaphoreTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	committed = true
	return nil
}

type semaphoreTx struct {
	tx *sql.Tx
}

func (t *semaphoreTx) Find(ctx context.Context, key string) (*warden.SemaphoreRecord, error) {
	var limit int
	err := t.tx.QueryRowContext(ctx,
		`SELECT limit_n FROM warden_semaphore_limits WHERE key = ?`, key,
	).Scan(&limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find semaphore limit: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx,
		`SELECT slot_id, exp_ms FROM warden_semaphore_slots WHERE key = ?`, key,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find semaphore slots: %w", err)
	}
	defer rows.Close()

	rec := &warden.SemaphoreRecord{Limit: limit, AcquiredSlots: map[string]*time.Time{}}
	for rows.Next() {
		var slotID string
		var expMs sql.NullInt64
		if err := rows.Scan(&slotID, &expMs); err != nil {
			return nil, fmt.Errorf("sqlstore: scan semaphore slot: %w", err)
		}
		if expMs.Valid {
			exp := time.UnixMilli(expMs.Int64)
			rec.AcquiredSlots[slotID] = &exp
		} else {
			rec.AcquiredSlots[slotID] = nil
		}
	}
	return rec, rows.Err()
}

func (t *semaphoreTx) Upsert(ctx context.Context, key string, rec warden.SemaphoreRecord) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO warden_semaphore_limits (key, limit_n) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET limit_n = excluded.limit_n`,
		key, rec.Limit,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: upsert semaphore limit: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM warden_semaphore_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: clear semaphore slots: %w", err)
	}
	for slotID, exp := range rec.AcquiredSlots {
		var expArg interface{}
		if exp != nil {
			expArg = exp.UnixMilli()
		}
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO warden_semaphore_slots (key, slot_id, exp_ms) VALUES (?, ?, ?)`,
			key, slotID, expArg,
		); err != nil {
			return fmt.Errorf("sqlstore: insert semaphore slot: %w", err)
		}
	}
	return nil
}

func (t *semaphoreTx) Delete(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM warden_semaphore_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: delete semaphore slots: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM warden_semaphore_limits WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: delete semaphore limit: %w", err)
	}
	return nil
}

var _ warden.DatabaseSemaphoreAdapter = (*SemaphoreStore)(nil)
var _ warden.DatabaseSemaphoreTx = (*semaphoreTx)(nil)
