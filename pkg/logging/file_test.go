package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// newTestFileLogger opens a file logger in a fresh temp dir
func newTestFileLogger(t *testing.T, format Format, level Level) (Logger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewFileLogger(FileLoggerConfig{Path: logPath, Format: format, Level: level})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	return logger, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNewFileLogger_CreatesDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")
	logger, err := NewFileLogger(FileLoggerConfig{Path: logPath, Format: FormatText, Level: InfoLevel})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestFileLogger_LogLevels(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatText, InfoLevel)
	ctx := context.Background()

	logger.Debug(ctx, "debug message", nil)
	logger.Info(ctx, "info message", nil)
	logger.Warn(ctx, "warn message", nil)
	logger.Error(ctx, "error message", nil, nil)
	logger.Close()

	logContent := readLog(t, logPath)

	if strings.Contains(logContent, "debug message") {
		t.Error("Debug message should be filtered at INFO level")
	}
	for _, want := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("%q should be present", want)
		}
	}
}

func TestFileLogger_TextFormat(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatText, InfoLevel)
	logger.Info(context.Background(), "test message", Fields{"key": "value", "count": 42})
	logger.Close()

	logContent := readLog(t, logPath)
	for _, want := range []string{"level=INFO", `msg="test message"`, "key=value", "count=42"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log should contain %q, got %s", want, logContent)
		}
	}
}

func TestFileLogger_JSONFormat(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatJSON, InfoLevel)
	logger.Info(context.Background(), "test message", Fields{"key": "value"})
	logger.Close()

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want 'test message'", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want 'value'", entry["key"])
	}
	if entry["time"] == nil {
		t.Error("time should be present")
	}
}

func TestFileLogger_ErrorWithErr(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatJSON, InfoLevel)
	logger.Error(context.Background(), "operation failed", errors.New("something went wrong"), Fields{"operation": "test"})
	logger.Close()

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["error"] != "something went wrong" {
		t.Errorf("error = %v, want 'something went wrong'", entry["error"])
	}
}

func TestFileLogger_WithFields(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatJSON, InfoLevel)
	child := logger.WithFields(Fields{"plan": "abc"})
	child.Info(context.Background(), "child message", Fields{"extra": 1})
	logger.Close()

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["plan"] != "abc" {
		t.Errorf("plan = %v, want abc", entry["plan"])
	}
	if entry["extra"] != float64(1) {
		t.Errorf("extra = %v, want 1", entry["extra"])
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewFileLogger(FileLoggerConfig{
		Path:       logPath,
		Format:     FormatText,
		Level:      InfoLevel,
		MaxSize:    200,
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		logger.Info(context.Background(), "a message long enough to trigger rotation quickly", Fields{"i": i})
	}
	logger.Close()

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("Backup file .1 should exist after rotation")
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("Backups beyond MaxBackups should be removed")
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Main log file should still exist")
	}
}

func TestFileLogger_ConcurrentWrites(t *testing.T) {
	logger, logPath := newTestFileLogger(t, FormatText, InfoLevel)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				logger.Info(ctx, "concurrent message", Fields{"goroutine": id, "iteration": j})
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	lines := strings.Split(strings.TrimSpace(readLog(t, logPath)), "\n")
	if len(lines) != 1000 {
		t.Errorf("Expected 1000 log lines, got %d", len(lines))
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, WarnLevel)
	ctx := context.Background()

	logger.Info(ctx, "hidden", nil)
	logger.Warn(ctx, "missing on both sides", Fields{"path": "a.txt"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at WARN level")
	}
	if !strings.Contains(out, "missing on both sides") || !strings.Contains(out, "path=a.txt") {
		t.Errorf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal writers should not receive color codes")
	}
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", nil, nil)

	child := logger.WithFields(Fields{"key": "value"})
	if child == nil {
		t.Fatal("WithFields should return a logger")
	}
	child.Info(ctx, "child", Fields{"n": 1})
	if err := child.Close(); err != nil {
		t.Errorf("child Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"unknown", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ParseLevel(tt.input); result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := LevelString(tt.level); result != tt.expected {
				t.Errorf("LevelString(%v) = %q, want %q", tt.level, result, tt.expected)
			}
		})
	}
}
