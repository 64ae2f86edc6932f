package warden

import (
	"errors"
	"testing"
)

func TestErrKeyAlreadyAcquiredPredicates(t *testing.T) {
	err := ErrKeyAlreadyAcquired("lock", "jobs:nightly", "worker-1")
	if !IsKeyAlreadyAcquired(err) {
		t.Error("IsKeyAlreadyAcquired = false, want true")
	}
	if GetErrorCode(err) != ErrCodeKeyAlreadyAcquired {
		t.Errorf("GetErrorCode = %v, want %v", GetErrorCode(err), ErrCodeKeyAlreadyAcquired)
	}
	ctx := GetErrorContext(err)
	if ctx["key"] != "jobs:nightly" || ctx["owner"] != "worker-1" {
		t.Errorf("unexpected error context: %v", ctx)
	}
}

func TestErrUnownedReleaseAndRefresh(t *testing.T) {
	if !IsUnownedRelease(ErrUnownedRelease("lock", "k", "o")) {
		t.Error("IsUnownedRelease = false, want true")
	}
	if !IsUnownedRefresh(ErrUnownedRefresh("lock", "k", "o")) {
		t.Error("IsUnownedRefresh = false, want true")
	}
}

func TestErrUnableToAcquireIsRetryable(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrUnableToAcquire("lock", "k", cause)
	if !IsRetryable(err) {
		t.Error("IsRetryable = false, want true for adapter fault")
	}
}

func TestErrKeyNotFoundInCache(t *testing.T) {
	err := ErrKeyNotFoundInCache("missing")
	if !IsKeyNotFound(err) {
		t.Error("IsKeyNotFound = false, want true")
	}
}

func TestErrTypeCache(t *testing.T) {
	cause := errors.New("value is not numeric: string")
	err := ErrTypeCache("counter", cause)
	if !IsTypeCache(err) {
		t.Error("IsTypeCache = false, want true")
	}
}

func TestErrBlockingTimeout(t *testing.T) {
	err := ErrBlockingTimeout("semaphore", "k", NewTimeSpan(0))
	if !IsBlockingTimeout(err) {
		t.Error("IsBlockingTimeout = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable = false, want true for blocking timeout")
	}
}

func TestGetErrorCodeNilError(t *testing.T) {
	if GetErrorCode(nil) != "" {
		t.Error("GetErrorCode(nil) should return empty code")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) should be false")
	}
	if GetErrorContext(nil) != nil {
		t.Error("GetErrorContext(nil) should be nil")
	}
}

func TestPredicatesRejectUnrelatedErrors(t *testing.T) {
	other := errors.New("boom")
	if IsKeyAlreadyAcquired(other) {
		t.Error("IsKeyAlreadyAcquired should reject a plain error")
	}
	if IsTypeCache(other) {
		t.Error("IsTypeCache should reject a plain error")
	}
}
