// wire.go: stable wire representation for handle serialization
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"encoding/json"
	"fmt"
)

// wireVersion is bumped whenever the wire shape changes incompatibly.
// Deserializing an unknown version is rejected rather than guessed at.
const wireVersion = 1

// lockWire is the stable wire shape for a Lock handle.
type lockWire struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	Owner   string `json:"owner"`
}

// semaphoreWire is the stable wire shape for a Semaphore handle.
type semaphoreWire struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	SlotID  string `json:"slotId"`
	Limit   int    `json:"limit"`
}

// sharedLockWire is the stable wire shape for a SharedLock handle.
type sharedLockWire struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	Owner   string `json:"owner"`
	SlotID  string `json:"slotId"`
	Limit   int    `json:"limit"`
}

// MarshalJSON encodes the handle's rebindable identity: resolved key and
// owner. TTL is not part of the wire shape - ownership, not a specific
// lease, is what travels across a process boundary.
func (l *Lock) MarshalJSON() ([]byte, error) {
	return json.Marshal(lockWire{Version: wireVersion, Key: l.key.Resolved(), Owner: l.owner})
}

// UnmarshalLock decodes data into a Lock bound to p.
func UnmarshalLock(p *Provider, data []byte) (*Lock, error) {
	var w lockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("warden: unsupported lock wire version %d", w.Version)
	}
	return p.Lock(w.Key, w.Owner), nil
}

// MarshalJSON encodes the handle's rebindable identity: resolved key, slot
// id, and the limit in force for this key.
func (s *Semaphore) MarshalJSON() ([]byte, error) {
	return json.Marshal(semaphoreWire{Version: wireVersion, Key: s.key.Resolved(), SlotID: s.slotID, Limit: s.limit})
}

// UnmarshalSemaphore decodes data into a Semaphore bound to p.
func UnmarshalSemaphore(p *Provider, data []byte) (*Semaphore, error) {
	var w semaphoreWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("warden: unsupported semaphore wire version %d", w.Version)
	}
	return p.Semaphore(w.Key, w.SlotID, w.Limit), nil
}

// MarshalJSON encodes the handle's rebindable identity: resolved key,
// writer owner, reader slot id, and reader limit in force.
func (s *SharedLock) MarshalJSON() ([]byte, error) {
	return json.Marshal(sharedLockWire{Version: wireVersion, Key: s.key.Resolved(), Owner: s.owner, SlotID: s.slotID, Limit: s.limit})
}

// UnmarshalSharedLock decodes data into a SharedLock bound to p.
func UnmarshalSharedLock(p *Provider, data []byte) (*SharedLock, error) {
	var w sharedLockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("warden: unsupported shared lock wire version %d", w.Version)
	}
	return p.SharedLock(w.Key, w.Owner, w.SlotID, w.Limit), nil
}
