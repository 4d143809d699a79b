package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"DEBUG":   Debug,
		"warning": Warn,
		"error":   Error,
		"nope":    Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestJSONLogger_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: Info, Format: FormatJSON, App: "meds", Output: &buf})

	log.Debug("hidden", nil)
	log.With(map[string]any{"schedule_id": "s-1", " ": "x"}).Warn("cancel failed", map[string]any{"count": 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["level"] != "warn" || entry["message"] != "cancel failed" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["app"] != "meds" || entry["schedule_id"] != "s-1" || entry["count"] != float64(2) {
		t.Fatalf("missing fields in %v", entry)
	}
	if _, ok := entry[" "]; ok {
		t.Fatalf("blank key should be dropped")
	}
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Level: Debug, Output: &buf}).Info("started", map[string]any{"port": "8080"})

	out := buf.String()
	if !strings.Contains(out, "started") || !strings.Contains(out, "port=8080") {
		t.Fatalf("unexpected text output %q", out)
	}
}
