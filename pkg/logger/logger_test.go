package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("invalid log line %q: %v", line, err)
	}
	return payload
}

func TestInfoCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithField(ctx, "assignment_id", "a-1")
	logg.Info(ctx, "hello")

	payload := decodeLine(t, &buf)
	if payload["request_id"] != "req-1" {
		t.Fatalf("missing request id in %v", payload)
	}
	if payload["assignment_id"] != "a-1" {
		t.Fatalf("missing assignment id in %v", payload)
	}
	if payload["service"] != "test" {
		t.Fatalf("missing service in %v", payload)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("bad"))

	payload := decodeLine(t, &buf)
	if payload["error"] != "bad" {
		t.Fatalf("missing error in %v", payload)
	}
	if _, ok := payload["stack"]; !ok {
		t.Fatalf("expected stack field in %v", payload)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected fallback info, got %s", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected default info, got %s", got)
	}
}
