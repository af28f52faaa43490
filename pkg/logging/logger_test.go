package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, line []byte) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry %q: %v", line, err)
	}
	return entry
}

func TestLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		name     string
	}{
		{"debug", DebugLevel, "DEBUG"},
		{"INFO", InfoLevel, "INFO"},
		{"warning", WarnLevel, "WARN"},
		{"WARN", WarnLevel, "WARN"},
		{"error", ErrorLevel, "ERROR"},
		{"verbose", InfoLevel, "INFO"}, // unknown falls back to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %v, want %v", got.String(), tt.name)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"Window", Window("20190131_01"), "window", "20190131_01"},
		{"K", K(4), "k", 4},
		{"Quality", Quality(0.42), "modularity", 0.42},
		{"QualityNaN", Quality(math.NaN()), "modularity", "NaN"},
		{"Producer", Producer("spectral"), "producer", "spectral"},
		{"RunID", RunID("run-1"), "run_id", "run-1"},
		{"Communities", Communities(3), "communities", 3},
		{"Duration", Duration("timeout", 5*time.Second), "timeout", "5s"},
		{"Error", Error(errors.New("no result")), "error", "no result"},
		{"ErrorNil", Error(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("got %+v, want {Key:%v Value:%v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("slice recorded", Window("2019_01"), Communities(4))

	entry := decode(t, buf.Bytes())
	if entry.Level != "INFO" || entry.Message != "slice recorded" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Fields["window"] != "2019_01" {
		t.Errorf("window field = %v, want 2019_01", entry.Fields["window"])
	}
	if entry.Fields["communities"] != float64(4) { // JSON numbers decode as float64
		t.Errorf("communities field = %v, want 4", entry.Fields["communities"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("run finished")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("alignment mapping")
	logger.Info("slice recorded")
	logger.Warn("slice degraded")
	logger.Error("run stopped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}
	if e := decode(t, []byte(lines[0])); e.Level != "WARN" {
		t.Errorf("First entry level = %v, want WARN", e.Level)
	}
	if e := decode(t, []byte(lines[1])); e.Level != "ERROR" {
		t.Errorf("Second entry level = %v, want ERROR", e.Level)
	}

	buf.Reset()
	logger.SetLevel(DebugLevel)
	if logger.GetLevel() != DebugLevel {
		t.Errorf("After SetLevel, level = %v, want DebugLevel", logger.GetLevel())
	}
	logger.Debug("alignment mapping")
	if buf.Len() == 0 {
		t.Error("Expected output for Debug at DebugLevel")
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("tracker"), RunID("run-1"))
	child.Info("slice recorded", Window("2019_01"))

	entry := decode(t, buf.Bytes())
	for key, want := range map[string]any{"component": "tracker", "run_id": "run-1", "window": "2019_01"} {
		if entry.Fields[key] != want {
			t.Errorf("%s field = %v, want %v", key, entry.Fields[key], want)
		}
	}

	// The parent keeps its own fields
	buf.Reset()
	logger.Info("plain")
	if entry := decode(t, buf.Bytes()); entry.Fields["component"] != nil {
		t.Errorf("parent logger picked up child fields: %+v", entry.Fields)
	}
}

func TestJSONLogger_NaNQuality(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Warn("slice degraded", Window("2020_03"), Quality(math.NaN()))

	entry := decode(t, buf.Bytes())
	if entry.Fields["modularity"] != "NaN" {
		t.Errorf("modularity field = %v, want NaN", entry.Fields["modularity"])
	}
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, InfoLevel)

	logger.With(Producer("kmeans")).Info("slice tracked", K(4), Window("2019_01"))

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"INFO", "slice tracked", "k=4", "producer=kmeans", "window=2019_01"} {
		if !strings.Contains(line, want) {
			t.Errorf("text line %q missing %q", line, want)
		}
	}
	// Keys are sorted
	if strings.Index(line, "k=4") > strings.Index(line, "window=") {
		t.Errorf("expected sorted keys in %q", line)
	}
}

func TestNewLogger_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, Format("xml"), InfoLevel).Info("hello")
	decode(t, buf.Bytes())
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "window processed", Window("2019_02"))
	op.End(Communities(3))

	entry := decode(t, buf.Bytes())
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("expected latency field")
	}
	if entry.Fields["communities"] != float64(3) {
		t.Errorf("communities field = %v, want 3", entry.Fields["communities"])
	}

	buf.Reset()
	op.EndError(errors.New("boom"))
	entry = decode(t, buf.Bytes())
	if entry.Level != "ERROR" || entry.Fields["error"] != "boom" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Error("OrNop(nil) should return NopLogger")
	}
	l := NewJSONLogger(&bytes.Buffer{}, InfoLevel)
	if OrNop(l) != Logger(l) {
		t.Error("OrNop should return non-nil logger unchanged")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("slice recorded", Window("2019_01"), Quality(0.42))
	}
}
