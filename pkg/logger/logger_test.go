package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithUserID(ctx, 42)

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if entry["user_id"] != float64(42) {
		t.Fatalf("expected user_id 42; entry=%s", buf.String())
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}
}

func TestWithFieldsDoesNotLeakIntoParentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	parent := log.WithOrderID(context.Background(), 7)
	_ = log.WithFields(parent, map[string]any{"new_status": "confirmed"})
	log.Info(parent, "parent")

	if bytes.Contains(buf.Bytes(), []byte("new_status")) {
		t.Fatalf("child fields leaked into parent: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"order_id":7`)) {
		t.Fatalf("expected order_id on parent entry: %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestWithFieldsOrderIsStable(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})

	ctx := log.WithFields(context.Background(), map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	log.Info(ctx, "ordered")

	out := buf.String()
	alpha := bytes.Index([]byte(out), []byte(`"alpha"`))
	mid := bytes.Index([]byte(out), []byte(`"mid"`))
	zeta := bytes.Index([]byte(out), []byte(`"zeta"`))
	if alpha < 0 || !(alpha < mid && mid < zeta) {
		t.Fatalf("expected alphabetical field order; entry=%s", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatConsole})
	log.Info(log.WithPaymentID(context.Background(), 5), "payment ready")

	out := buf.String()
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("console output should not be JSON: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("payment_id=5")) {
		t.Fatalf("expected payment_id field in console output: %s", out)
	}
}

func TestErrorWithoutCauseOmitsErrorField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	log.Error(context.Background(), "no cause", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v (%s)", err, buf.String())
	}
	if _, ok := entry["error"]; ok {
		t.Fatalf("nil error must not add an error field; entry=%s", buf.String())
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service field; entry=%s", buf.String())
	}
}
