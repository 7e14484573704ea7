package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithOperationAndSessionFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithSession(WithOperation(logger, "usecase.process", "req-1"), "ip:10.0.0.1").Info("hello")
	WithSession(WithOperation(logger, "usecase.process", ""), "").Info("bare")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first["operation"] != "usecase.process" || first["request_id"] != "req-1" || first["session_id"] != "ip:10.0.0.1" {
		t.Fatalf("unexpected fields %v", first)
	}

	second := entries[1].ContextMap()
	if _, ok := second["request_id"]; ok {
		t.Fatalf("empty request id should be omitted: %v", second)
	}
	if _, ok := second["session_id"]; ok {
		t.Fatalf("empty session id should be omitted: %v", second)
	}
}
