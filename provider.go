// provider.go: handle-minting factory bound to a fixed adapter set
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProviderConfig bundles the ambient Config with the storage adapters a
// Provider mints handles against. Exactly one of each adapter's direct or
// database flavor must be supplied per primitive the caller intends to
// use; leaving an adapter nil means that primitive's handles are not
// available from this Provider.
type ProviderConfig struct {
	Config

	LockAdapter       LockAdapter
	SemaphoreAdapter  SemaphoreAdapter
	SharedLockAdapter SharedLockAdapter
	CacheAdapter      CacheAdapter

	DatabaseLockAdapter       DatabaseLockAdapter
	DatabaseSemaphoreAdapter  DatabaseSemaphoreAdapter
}

// Provider mints Lock, Semaphore, SharedLock, and Cache handles bound to a
// fixed adapter set, namespace, and set of ambient collaborators. A single
// Provider is safe for concurrent use by any number of goroutines minting
// and operating on handles simultaneously.
type Provider struct {
	cfg Config

	lockAdapter       LockAdapter
	semaphoreAdapter  SemaphoreAdapter
	sharedLockAdapter SharedLockAdapter
	cacheAdapter      CacheAdapter

	clock      Clock
	logger     Logger
	metrics    MetricsCollector
	dispatcher EventDispatcher
	ids        IDGenerator

	cacheOnce sync.Once
	cacheFlight *singleflight.Group
}

// NewProvider validates cfg (normalizing zero-valued ambient fields to
// their documented defaults) and returns a ready-to-use Provider.
// DatabaseLockAdapter/DatabaseSemaphoreAdapter, when set, are normalized
// to the direct shape at construction time - the tagged-variant-at-mint
// design named in adapter.go, never sniffed again on the hot path.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:        cfg.Config,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.MetricsCollector,
		dispatcher: cfg.EventDispatcher,
		ids:        cfg.IDGenerator,
	}

	p.lockAdapter = cfg.LockAdapter
	if p.lockAdapter == nil && cfg.DatabaseLockAdapter != nil {
		p.lockAdapter = normalizeLockAdapter(cfg.DatabaseLockAdapter, p.clock)
	}

	p.semaphoreAdapter = cfg.SemaphoreAdapter
	if p.semaphoreAdapter == nil && cfg.DatabaseSemaphoreAdapter != nil {
		p.semaphoreAdapter = normalizeSemaphoreAdapter(cfg.DatabaseSemaphoreAdapter, p.clock)
	}

	p.sharedLockAdapter = cfg.SharedLockAdapter
	p.cacheAdapter = cfg.CacheAdapter

	return p, nil
}

// NewInMemoryProvider is a convenience constructor wiring every adapter to
// a single shared MemoryAdapter, the configuration the core test suite
// exercises.
func NewInMemoryProvider(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mem := NewMemoryAdapter(cfg.Clock)
	return NewProvider(ProviderConfig{
		Config:            cfg,
		LockAdapter:       mem.LockAdapter(),
		SemaphoreAdapter:  mem.SemaphoreAdapter(),
		SharedLockAdapter: mem.SharedLockAdapter(),
		CacheAdapter:      mem.CacheAdapter(),
	})
}

func (p *Provider) key(raw string) Key { return newKey(p.cfg.Namespace, raw) }

func (p *Provider) emit(evt Event) {
	if p.dispatcher == nil {
		return
	}
	p.dispatcher.Emit(evt)
}

func (p *Provider) newOwnerID() string { return p.ids.NewID() }

func (p *Provider) singleflightGroup() *singleflight.Group {
	p.cacheOnce.Do(func() { p.cacheFlight = &singleflight.Group{} })
	return p.cacheFlight
}

// Lock mints a Lock handle for key. owner identifies this handle to the
// adapter; if empty, the Provider's IDGenerator mints one.
func (p *Provider) Lock(key string, owner string) *Lock {
	if owner == "" {
		owner = p.newOwnerID()
	}
	return &Lock{p: p, key: p.key(key), owner: owner}
}

// Semaphore mints a Semaphore handle for key with the given limit. If
// limit is zero, the Provider's DefaultSemaphoreLimit is used. slotID
// identifies this handle; if empty, the Provider's IDGenerator mints one.
// The limit only takes effect for the first successful Acquire against a
// previously-unheld key; later callers inherit whatever limit is already
// in force.
func (p *Provider) Semaphore(key string, slotID string, limit int) *Semaphore {
	if slotID == "" {
		slotID = p.newOwnerID()
	}
	if limit <= 0 {
		limit = p.cfg.DefaultSemaphoreLimit
	}
	return &Semaphore{p: p, key: p.key(key), slotID: slotID, limit: limit}
}

// SharedLock mints a SharedLock handle for key. owner identifies writer
// operations; slotID identifies reader operations; either left empty is
// minted from the Provider's IDGenerator. readerLimit behaves like
// Semaphore's limit for the reader side.
func (p *Provider) SharedLock(key string, owner string, slotID string, readerLimit int) *SharedLock {
	if owner == "" {
		owner = p.newOwnerID()
	}
	if slotID == "" {
		slotID = p.newOwnerID()
	}
	if readerLimit <= 0 {
		readerLimit = p.cfg.DefaultSemaphoreLimit
	}
	return &SharedLock{p: p, key: p.key(key), owner: owner, slotID: slotID, limit: readerLimit}
}

// Cache returns the Cache handle bound to this Provider's namespace.
// Unlike Lock/Semaphore/SharedLock it is stateless beyond the namespace,
// so a Provider only ever needs one.
func (p *Provider) Cache() *Cache {
	return &Cache{p: p, flight: p.singleflightGroup()}
}

// ResetDefaults applies new default timings to the Provider without
// reconstructing its adapters. Used by ProviderHotConfig on a config file
// change; see hot-reload.go.
func (p *Provider) ResetDefaults(blockingTime, blockingInterval, refreshTime time.Duration, semaphoreLimit int) {
	if blockingTime > 0 {
		p.cfg.DefaultBlockingTime = blockingTime
	}
	if blockingInterval > 0 {
		p.cfg.DefaultBlockingInterval = blockingInterval
	}
	if refreshTime > 0 {
		p.cfg.DefaultRefreshTime = refreshTime
	}
	if semaphoreLimit > 0 {
		p.cfg.DefaultSemaphoreLimit = semaphoreLimit
	}
}

// Ping exercises every configured adapter's GetState with a throwaway key,
// surfacing connectivity faults without mutating any real record.
func (p *Provider) Ping(ctx context.Context) error {
	probe := p.key("__warden_ping__").Namespaced()
	if p.lockAdapter != nil {
		if _, err := p.lockAdapter.GetState(ctx, probe); err != nil {
			return ErrUnexpected("lock", "ping", probe, err)
		}
	}
	if p.semaphoreAdapter != nil {
		if _, err := p.semaphoreAdapter.GetState(ctx, probe); err != nil {
			return ErrUnexpected("semaphore", "ping", probe, err)
		}
	}
	if p.sharedLockAdapter != nil {
		if _, err := p.sharedLockAdapter.GetState(ctx, probe); err != nil {
			return ErrUnexpected("sharedLock", "ping", probe, err)
		}
	}
	if p.cacheAdapter != nil {
		if _, _, err := p.cacheAdapter.Get(ctx, probe); err != nil {
			return ErrUnexpected("cache", "ping", probe, err)
		}
	}
	return nil
}
