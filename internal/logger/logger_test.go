package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		key  string
		val  any
		want any
	}{
		{"api_key", "sk-123", "[REDACTED]"},
		{"Authorization", "Bearer x", "[REDACTED]"},
		{"refresh_token", "abc", "[REDACTED]"},
		{"input_tokens", 42, 42},
		{"purpose", "exercises", "exercises"},
	}

	for _, tt := range tests {
		got := sanitizeKVs([]any{tt.key, tt.val})
		if got[0] != tt.key {
			t.Errorf("key %q rewritten to %v", tt.key, got[0])
		}
		if got[1] != tt.want {
			t.Errorf("%s: got %v, want %v", tt.key, got[1], tt.want)
		}
	}
}

func TestSanitizeKVs_HashesAccount(t *testing.T) {
	got := sanitizeKVs([]any{"account", "alice@example.org"})
	s, ok := got[1].(string)
	if !ok || len(s) != 12 {
		t.Fatalf("expected 12-char hash, got %v", got[1])
	}
	if s == "alice@example.org" {
		t.Fatal("account must not be logged in clear text")
	}
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	got := sanitizeKVs([]any{"purpose", "x", "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Warn("attempt failed", "attempt", 2, "api_key", "sk-1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "test" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v", fields["api_key"])
	}
}
