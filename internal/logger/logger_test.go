package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "json")
	l.Info("hidden")
	l.Warn("shown", "event_id", "concert")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["event_id"] != "concert" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = New(&buf, "info", "json")
	defer func() { defaultLogger = nil }()

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithWallet(ctx, "wallet-1")
	WithContext(ctx).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["request_id"] != "req-1" || rec["wallet_address"] != "wallet-1" {
		t.Errorf("context fields missing: %v", rec)
	}
}
