// Package logging configures slog for the service: text on the console, JSON
// in size-rotated files under the log directory, with package-level helpers
// that fall back to the console when the global logger is not initialized.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// defaultMaxFileSize rotates files at 50MB.
const defaultMaxFileSize = 50 * 1024 * 1024

// RotatingLogger writes to timestamped log files and starts a new one once
// the current file reaches maxFileSize.
type RotatingLogger struct {
	mu          sync.Mutex
	logDir      string
	maxFileSize int64
	currentFile *os.File
	currentSize int64
}

// NewRotatingLogger creates a rotating logger writing under logDir.
func NewRotatingLogger(logDir string) *RotatingLogger {
	return &RotatingLogger{logDir: logDir, maxFileSize: defaultMaxFileSize}
}

// Write appends to the current file, rotating first when the write would
// push it past the size limit.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil || rl.currentSize+int64(len(p)) > rl.maxFileSize {
		if err := rl.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// rotate opens a fresh timestamped file. Caller must hold the lock.
func (rl *RotatingLogger) rotate() error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
	}

	name := fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02T15-04-05"))
	file, err := os.OpenFile(filepath.Join(rl.logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", name, err)
	}

	rl.currentFile = file
	rl.currentSize = 0
	if info, err := file.Stat(); err == nil {
		rl.currentSize = info.Size()
	}
	return nil
}

// Close closes the current log file.
func (rl *RotatingLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile != nil {
		err := rl.currentFile.Close()
		rl.currentFile = nil
		return err
	}
	return nil
}

// SetupLogger builds the service logger: a text handler on stdout for humans
// and a JSON handler on rotating files for ingestion. When the log directory
// cannot be created, logging degrades to console only.
func SetupLogger(logDir string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(os.Stdout, opts)

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(console)
		logger.Error("Failed to create logs directory", "error", err)
		return logger
	}

	file := slog.NewJSONHandler(NewRotatingLogger(logDir), opts)
	return slog.New(&teeHandler{targets: []slog.Handler{console, file}})
}

// teeHandler fans each record out to every target that accepts its level.
type teeHandler struct {
	targets []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.targets {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range t.targets {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(t.targets))
	for i, h := range t.targets {
		targets[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{targets: targets}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(t.targets))
	for i, h := range t.targets {
		targets[i] = h.WithGroup(name)
	}
	return &teeHandler{targets: targets}
}
