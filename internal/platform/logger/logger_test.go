package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStdLogger_TextIsSortedAndFiltered(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatText, App: "vet-clinic", Output: &buf})

	l.Debug("hidden", nil)
	l.With(Fields{"role": "admin"}).Info("seeded", Fields{"count": 8})

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	if !strings.HasPrefix(out, "app=vet-clinic count=8 level=info msg=seeded role=admin ts=") {
		t.Fatalf("unexpected text line %q", out)
	}
}

func TestStdLogger_JSONStringifiesErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, Output: &buf})

	l.Error("decrement failed", Fields{"error": errors.New("boom")})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["error"] != "boom" || entry["level"] != "error" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	fb := Nop()
	if FromContext(context.Background(), fb) != fb {
		t.Fatalf("expected fallback logger")
	}

	var buf bytes.Buffer
	l := New(Options{Output: &buf})
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx, fb) != l {
		t.Fatalf("expected context logger")
	}
}
