package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestLoggerOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelDebug)

	l.Debug("worker-1", "debug message")
	l.Info("worker-1", "info message")
	l.Warn("worker-1", "warn message")
	l.Error("worker-1", "error message")

	output := buf.String()

	if !strings.Contains(output, "[DEBUG]") {
		t.Error("expected DEBUG log")
	}
	if !strings.Contains(output, "[INFO]") {
		t.Error("expected INFO log")
	}
	if !strings.Contains(output, "[WARN]") {
		t.Error("expected WARN log")
	}
	if !strings.Contains(output, "[ERROR]") {
		t.Error("expected ERROR log")
	}
	if !strings.Contains(output, "[worker-1]") {
		t.Error("expected source tag in log")
	}
}

func TestLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelWarn)

	l.Debug("", "debug message")
	l.Info("", "info message")
	l.Warn("", "warn message")
	l.Error("", "error message")

	output := buf.String()

	if strings.Contains(output, "[DEBUG]") {
		t.Error("DEBUG should be filtered")
	}
	if strings.Contains(output, "[INFO]") {
		t.Error("INFO should be filtered")
	}
	if !strings.Contains(output, "[WARN]") {
		t.Error("expected WARN log")
	}
	if !strings.Contains(output, "[ERROR]") {
		t.Error("expected ERROR log")
	}
}

func TestLoggerSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelError)

	l.Info("", "should not appear")

	if strings.Contains(buf.String(), "should not appear") {
		t.Error("INFO should be filtered at ERROR level")
	}

	l.SetLevel(LevelInfo)
	l.Info("", "should appear")

	if !strings.Contains(buf.String(), "should appear") {
		t.Error("INFO should appear after SetLevel")
	}
}

func TestLoggerSetOutput(t *testing.T) {
	first := &bytes.Buffer{}
	second := &bytes.Buffer{}
	l := New(first, LevelInfo)

	l.Info("", "to first")
	l.SetOutput(second)
	l.Info("", "to second")

	if !strings.Contains(first.String(), "to first") {
		t.Error("expected message in first buffer")
	}
	if strings.Contains(first.String(), "to second") {
		t.Error("second message should not appear in first buffer")
	}
	if !strings.Contains(second.String(), "to second") {
		t.Error("expected message in second buffer")
	}
}

func TestLoggerWithoutSource(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelInfo)

	l.Info("", "message without source")

	output := buf.String()

	// Should not have empty brackets
	if strings.Contains(output, "[]") {
		t.Error("should not have empty brackets for source")
	}
	if !strings.Contains(output, "message without source") {
		t.Error("expected message in output")
	}
}

func TestLoggerFormatArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelInfo)

	l.Info("worker-1", "count: %d, name: %s", 42, "test")

	output := buf.String()

	if !strings.Contains(output, "count: 42, name: test") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}
