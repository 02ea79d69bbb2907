package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger when none is stored")
	}
}

func TestComponent_TagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")
	ctx := WithLogger(context.Background(), logger)

	Component(ctx, "FeedCache").Debug("warm")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["component"] != "FeedCache" {
		t.Errorf("component = %v, want FeedCache", rec["component"])
	}
	if rec["msg"] != "warm" {
		t.Errorf("msg = %v, want warm", rec["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q, want req-1", got)
	}
}
