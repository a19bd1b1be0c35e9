package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	return entry
}

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("list created", slog.String("list_id", "l-1"), slog.Int("task_count", 3))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "list created" {
		t.Errorf("msg = %q, want %q", entry["msg"], "list created")
	}
	if entry["list_id"] != "l-1" {
		t.Errorf("list_id = %v", entry["list_id"])
	}
	if entry["task_count"] != float64(3) {
		t.Errorf("task_count = %v", entry["task_count"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestSetup_SuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf).Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("debug should not be written at info level: %s", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)

	l.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info should be suppressed: %s", buf.String())
	}

	l.Warn("failed to rename list")
	if entry := decodeEntry(t, &buf); entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Debug("global test", slog.String("test_key", "test_val"))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "global test" || entry["test_key"] != "test_val" {
		t.Errorf("entry = %v", entry)
	}
}
