package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// NewFileLogger creates a logger writing slog records to a rotated file
func NewFileLogger(config FileLoggerConfig) (Logger, error) {
	w, err := openRotatingFile(config)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &slogLogger{logger: slog.New(handler), close: w.Close}, nil
}

// rotatingFile is an io.Writer that renames the file to .1, .2, ... once it
// reaches MaxSize
type rotatingFile struct {
	config      FileLoggerConfig
	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

func openRotatingFile(config FileLoggerConfig) (*rotatingFile, error) {
	// Ensure directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &rotatingFile{config: config, file: file, currentSize: info.Size()}, nil
}

// Write appends one record, rotating first when the size limit is reached
func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	if r.config.MaxSize > 0 && r.currentSize >= r.config.MaxSize {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.currentSize += int64(n)
	return n, err
}

// Close closes the underlying file
func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *rotatingFile) rotate() error {
	r.file.Close()

	for i := r.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.config.Path, i)
		newPath := fmt.Sprintf("%s.%d", r.config.Path, i+1)
		os.Rename(oldPath, newPath)
	}

	os.Rename(r.config.Path, r.config.Path+".1")

	if r.config.MaxBackups > 0 {
		os.Remove(fmt.Sprintf("%s.%d", r.config.Path, r.config.MaxBackups+1))
	}

	file, err := os.OpenFile(r.config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		r.file = nil
		return fmt.Errorf("failed to reopen log file: %w", err)
	}

	r.file = file
	r.currentSize = 0
	return nil
}
