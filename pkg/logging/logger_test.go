package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warning", WarnLevel},
		{" Warn ", WarnLevel},
		{"ERROR", ErrorLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()

	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Debug("hidden")
	logger.Info("shown", Count(3))
	logger.Error("failed", Error(errors.New("boom")))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "shown" || entries[0].Level != "INFO" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[0].Fields["count"] != float64(3) {
		t.Errorf("count field = %v", entries[0].Fields["count"])
	}
	if entries[1].Fields["error"] != "boom" {
		t.Errorf("error field = %v", entries[1].Fields["error"])
	}
}

func TestWithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(LoadID("run-1"), Component("batch"))

	parent.SetLevel(DebugLevel)
	child.Debug("chunk committed", Chunk(2), Trigger("buffer"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	f := entries[0].Fields
	if f["load_id"] != "run-1" || f["component"] != "batch" || f["chunk"] != float64(2) || f["trigger"] != "buffer" {
		t.Errorf("fields = %v", f)
	}
	if child.GetLevel() != DebugLevel {
		t.Errorf("child level = %v, want DEBUG", child.GetLevel())
	}
}

func TestExternalIDFormatsAnyType(t *testing.T) {
	type key struct{ A, B int }
	if f := ExternalID(key{1, 2}); f.Value != "{1 2}" {
		t.Errorf("ExternalID = %v", f.Value)
	}
	if f := ExternalID(42); f.Value != "42" {
		t.Errorf("ExternalID = %v", f.Value)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "commit", Operation("chunk"))
	timer.EndWithLevel(DebugLevel, Count(10))
	StartTimer(logger, "close").EndError(errors.New("disk full"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entries[0].Fields["operation"] != "chunk" || entries[0].Fields["count"] != float64(10) {
		t.Errorf("fields = %v", entries[0].Fields)
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "disk full" {
		t.Errorf("entry = %+v", entries[1])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing")
	if logger.With(Count(1)) == nil {
		t.Error("With returned nil")
	}
	if logger.GetLevel() != InfoLevel {
		t.Error("unexpected level")
	}
}
