// warden.go: package-level constants and version information
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import "time"

const (
	// Version of the warden coordination library.
	Version = "v0.1.0-dev"

	// DefaultNamespace is the provider-scope prefix used when none is configured.
	DefaultNamespace = "warden"

	// DefaultBlockingTime is how long a blocking acquire waits before giving up.
	DefaultBlockingTime = 10 * time.Second

	// DefaultBlockingInterval is how long a blocking acquire sleeps between attempts.
	DefaultBlockingInterval = 50 * time.Millisecond

	// DefaultRefreshTime is the TTL applied by a refresh call that omits one.
	DefaultRefreshTime = 30 * time.Second

	// DefaultSemaphoreLimit is the slot count used when a semaphore is minted without one.
	DefaultSemaphoreLimit = 1
)
