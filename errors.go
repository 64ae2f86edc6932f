// errors.go: structured error taxonomy for warden coordination primitives
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for every primitive operation.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package warden

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for warden coordination operations.
const (
	// Contention errors (1xxx)
	ErrCodeKeyAlreadyAcquired errors.ErrorCode = "WARDEN_KEY_ALREADY_ACQUIRED"
	ErrCodeLimitReached       errors.ErrorCode = "WARDEN_LIMIT_REACHED"
	ErrCodeNotAvailable       errors.ErrorCode = "WARDEN_NOT_AVAILABLE"

	// Ownership errors (2xxx)
	ErrCodeUnownedRelease errors.ErrorCode = "WARDEN_UNOWNED_RELEASE"
	ErrCodeUnownedRefresh errors.ErrorCode = "WARDEN_UNOWNED_REFRESH"
	ErrCodeFailedRelease  errors.ErrorCode = "WARDEN_FAILED_RELEASE"
	ErrCodeFailedRefresh  errors.ErrorCode = "WARDEN_FAILED_REFRESH"

	// Adapter fault errors (3xxx)
	ErrCodeUnableToAcquire errors.ErrorCode = "WARDEN_UNABLE_TO_ACQUIRE"
	ErrCodeUnableToRelease errors.ErrorCode = "WARDEN_UNABLE_TO_RELEASE"
	ErrCodeUnexpectedError errors.ErrorCode = "WARDEN_UNEXPECTED_ERROR"

	// Cache errors (4xxx)
	ErrCodeKeyNotFound errors.ErrorCode = "WARDEN_KEY_NOT_FOUND"
	ErrCodeTypeCache   errors.ErrorCode = "WARDEN_TYPE_CACHE"

	// Timeout / configuration errors (5xxx)
	ErrCodeBlockingTimeout errors.ErrorCode = "WARDEN_BLOCKING_TIMEOUT"
	ErrCodeInvalidConfig   errors.ErrorCode = "WARDEN_INVALID_CONFIG"
)

const (
	msgKeyAlreadyAcquired = "key is already acquired by another owner"
	msgLimitReached       = "semaphore limit reached"
	msgNotAvailable       = "key is not available"
	msgUnownedRelease     = "release attempted by an identity that does not own the key"
	msgUnownedRefresh     = "refresh attempted by an identity that does not own the key"
	msgFailedRelease      = "release did not remove a record"
	msgFailedRefresh      = "refresh did not update a record"
	msgUnableToAcquire    = "adapter fault while acquiring"
	msgUnableToRelease    = "adapter fault while releasing"
	msgUnexpectedError    = "unexpected adapter error"
	msgKeyNotFound        = "key not found in cache"
	msgTypeCache          = "stored value is not numeric"
	msgBlockingTimeout    = "blocking acquire timed out"
	msgInvalidConfig      = "invalid provider configuration"
)

// ErrKeyAlreadyAcquired is returned by AcquireOrFail-family calls when the
// underlying acquire returns false.
func ErrKeyAlreadyAcquired(primitive, key, owner string) error {
	return errors.NewWithContext(ErrCodeKeyAlreadyAcquired, msgKeyAlreadyAcquired, map[string]interface{}{
		"primitive": primitive,
		"key":       key,
		"owner":     owner,
	})
}

// ErrLimitReached is returned when a semaphore/reader slot acquisition
// fails because the configured limit is already met.
func ErrLimitReached(key string, limit int) error {
	return errors.NewWithContext(ErrCodeLimitReached, msgLimitReached, map[string]interface{}{
		"key":   key,
		"limit": limit,
	})
}

// ErrNotAvailable is returned when an operation could not proceed because
// the key is held in the wrong mode (e.g. a shared-lock writer op against
// a reader-held key).
func ErrNotAvailable(primitive, key string) error {
	return errors.NewWithField(ErrCodeNotAvailable, msgNotAvailable, "key", key).WithContext("primitive", primitive)
}

// ErrUnownedRelease is thrown by ReleaseOrFail when release returns false.
func ErrUnownedRelease(primitive, key, owner string) error {
	return errors.NewWithContext(ErrCodeUnownedRelease, msgUnownedRelease, map[string]interface{}{
		"primitive": primitive,
		"key":       key,
		"owner":     owner,
	})
}

// ErrUnownedRefresh is thrown by RefreshOrFail when refresh returns false.
func ErrUnownedRefresh(primitive, key, owner string) error {
	return errors.NewWithContext(ErrCodeUnownedRefresh, msgUnownedRefresh, map[string]interface{}{
		"primitive": primitive,
		"key":       key,
		"owner":     owner,
	})
}

// ErrUnableToAcquire wraps an adapter fault observed during acquire.
func ErrUnableToAcquire(primitive, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeUnableToAcquire, msgUnableToAcquire).
		WithContext("primitive", primitive).
		WithContext("key", key).
		AsRetryable()
}

// ErrUnableToRelease wraps an adapter fault observed during release.
func ErrUnableToRelease(primitive, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeUnableToRelease, msgUnableToRelease).
		WithContext("primitive", primitive).
		WithContext("key", key).
		AsRetryable()
}

// ErrUnexpected wraps any adapter fault not otherwise classified.
func ErrUnexpected(primitive, op, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeUnexpectedError, msgUnexpectedError).
		WithContext("primitive", primitive).
		WithContext("op", op).
		WithContext("key", key).
		WithSeverity("warning")
}

// ErrKeyNotFoundInCache is thrown by Cache.GetOrFail when the key is absent.
func ErrKeyNotFoundInCache(key string) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", key)
}

// ErrTypeCache is returned when Increment/Decrement targets a non-numeric value.
func ErrTypeCache(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeTypeCache, msgTypeCache).WithContext("key", key)
}

// ErrBlockingTimeout is thrown by AcquireBlockingOrFail when the configured
// blocking window elapses without success.
func ErrBlockingTimeout(primitive, key string, waited fmt.Stringer) error {
	return errors.NewWithContext(ErrCodeBlockingTimeout, msgBlockingTimeout, map[string]interface{}{
		"primitive": primitive,
		"key":       key,
		"waited":    waited.String(),
	}).AsRetryable()
}

// ErrInvalidProviderConfig reports a configuration value that could not be normalized.
func ErrInvalidProviderConfig(field string, value interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field": field,
		"value": value,
	})
}

// hasCode reports whether err carries the given go-errors code, walking
// the error chain via errors.As the same way the teacher's own Is*
// predicates do.
func hasCode(err error, code errors.ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsKeyAlreadyAcquired reports whether err is a contention error from an
// OrFail-family acquire call.
func IsKeyAlreadyAcquired(err error) bool { return hasCode(err, ErrCodeKeyAlreadyAcquired) }

// IsUnownedRelease reports whether err came from ReleaseOrFail.
func IsUnownedRelease(err error) bool { return hasCode(err, ErrCodeUnownedRelease) }

// IsUnownedRefresh reports whether err came from RefreshOrFail.
func IsUnownedRefresh(err error) bool { return hasCode(err, ErrCodeUnownedRefresh) }

// IsKeyNotFound reports whether err is a cache miss from GetOrFail.
func IsKeyNotFound(err error) bool { return hasCode(err, ErrCodeKeyNotFound) }

// IsTypeCache reports whether err came from an Increment/Decrement on a non-numeric value.
func IsTypeCache(err error) bool { return hasCode(err, ErrCodeTypeCache) }

// IsBlockingTimeout reports whether err came from an AcquireBlockingOrFail timeout.
func IsBlockingTimeout(err error) bool { return hasCode(err, ErrCodeBlockingTimeout) }

// IsRetryable reports whether err is marked retryable by the go-errors Retryable interface.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from err, or "" if err does not carry one.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context map attached to err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var wardenErr *errors.Error
	if goerrors.As(err, &wardenErr) {
		return wardenErr.Context
	}
	return nil
}
