package zap

import (
	"testing"

	"github.com/agilira/warden"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_ImplementsWardenLogger(t *testing.T) {
	var _ warden.Logger = (*Logger)(nil)
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core))

	l.Debug("acquiring", "key", "k1")
	l.Info("acquired", "key", "k1", "owner", "A")
	l.Warn("contention", "key", "k1")
	l.Error("adapter fault", "key", "k1", "err", "boom")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d log entries, want 4", len(entries))
	}
	if entries[0].Message != "acquiring" {
		t.Fatalf("entries[0].Message = %q, want %q", entries[0].Message, "acquiring")
	}
	if entries[1].ContextMap()["owner"] != "A" {
		t.Fatalf("entries[1] missing owner field: %+v", entries[1].ContextMap())
	}
}
