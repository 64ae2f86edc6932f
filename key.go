// key.go: key canonicalization and provider namespacing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import "strings"

// Key pairs a user-supplied raw key with its provider-namespaced storage
// form. Two handles with equal Resolved() values minted from the same
// provider address the same underlying adapter record.
type Key struct {
	raw        string
	namespaced string
}

// newKey builds a Key by joining the provider namespace and the raw key
// with a deterministic separator. Namespacing never depends on anything
// but the namespace and the raw key, so it is trivially reproducible
// across processes sharing the same provider configuration.
func newKey(namespace, raw string) Key {
	return Key{
		raw:        raw,
		namespaced: namespace + keySeparator + raw,
	}
}

const keySeparator = ":"

// Raw returns the key as the caller supplied it.
func (k Key) Raw() string { return k.raw }

// Resolved returns the user-facing form of the key, used in events and
// error messages. It intentionally matches Raw(): the namespaced storage
// form is never exposed outside the adapter boundary.
func (k Key) Resolved() string { return k.raw }

// Namespaced returns the form stored in the adapter.
func (k Key) Namespaced() string { return k.namespaced }

func (k Key) String() string { return k.raw }

// namespacePrefix returns the adapter-level prefix for every key minted
// under the given namespace, used by Cache.Clear(namespacePrefix).
func namespacePrefix(namespace string) string {
	return namespace + keySeparator
}

// stripNamespace removes a namespace prefix from a stored key, returning
// the raw form. Nothing in this package calls it; Cache.Clear works on
// namespacePrefix and emits a single event without per-key names.
func stripNamespace(namespace, namespaced string) string {
	return strings.TrimPrefix(namespaced, namespacePrefix(namespace))
}
