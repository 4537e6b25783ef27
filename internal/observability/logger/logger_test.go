package logger

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFrom_FallsBackToSingleton(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("hello", KeyID("abc"))
	//nolint:staticcheck // nil ctx explicitly supported
	From(nil).Info("nil ctx")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["key_id"]; got != "abc" {
		t.Fatalf("key_id field: got %v", got)
	}
}

func TestToContext_Scoped(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	scoped := zap.New(core).With(RequestID("r-1"))
	ctx := ToContext(context.Background(), scoped)

	FromWithFields(ctx, Op("rotate")).Error("failed", Err(errors.New("boom")))

	entry := logs.All()[0]
	m := entry.ContextMap()
	if m["request_id"] != "r-1" || m["op"] != "rotate" || m["error"] != "boom" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestBuild_TestEnvIsNop(t *testing.T) {
	l := build(Config{Env: "test"})
	if l.Core().Enabled(zap.ErrorLevel) {
		t.Fatalf("test env logger should discard everything")
	}
	if parseLevel("WARN") != zap.WarnLevel || parseLevel("bogus") != zap.InfoLevel {
		t.Fatalf("parseLevel mismatch")
	}
}
