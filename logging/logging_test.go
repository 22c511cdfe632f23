package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestRotatingLoggerWrites(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLogger(tempDir)
	defer func() { _ = rl.Close() }()

	testMessage := "Test log message"
	if _, err := rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "app-") || !strings.HasSuffix(entries[0].Name(), ".log") {
		t.Errorf("Unexpected log file name: %s", entries[0].Name())
	}

	content, err := os.ReadFile(filepath.Join(tempDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}
}

func TestRotatingLoggerRotatesAtSizeLimit(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLogger(tempDir)
	rl.maxFileSize = 64
	defer func() { _ = rl.Close() }()

	if _, err := rl.Write([]byte(strings.Repeat("a", 60))); err != nil {
		t.Fatalf("Failed first write: %v", err)
	}
	// Second write would exceed the limit and triggers a rotation.
	if _, err := rl.Write([]byte(strings.Repeat("b", 60))); err != nil {
		t.Fatalf("Failed second write: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}

	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			t.Fatalf("Failed to stat %s: %v", entry.Name(), err)
		}
		total += info.Size()
	}
	if total != 120 {
		t.Errorf("Expected 120 bytes across rotated files, got %d", total)
	}
}

func TestRotatingLoggerInvalidDirectory(t *testing.T) {
	rl := NewRotatingLogger("/invalid/directory/that/does/not/exist")

	if _, err := rl.Write([]byte("test message")); err == nil {
		t.Error("Expected error when writing under a missing directory, got nil")
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Unexpected error when closing logger: %v", err)
	}
}

func TestPackageFunctionsFallBackWhenUninitialized(t *testing.T) {
	saved := DefaultLoggingService
	DefaultLoggingService = nil
	defer func() { DefaultLoggingService = saved }()

	// Must not panic without an initialized global logger.
	Info("Info message")
	Warn("Warning message")
	Error("Error message")
	Debug("Debug message")
}

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()

	saved := DefaultLoggingService
	defer func() { DefaultLoggingService = saved }()

	InitLogger(tempDir, slog.LevelInfo)
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		t.Fatal("InitLogger did not initialize DefaultLoggingService")
	}

	Info("Test message from global logger")

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	if len(entries) == 0 {
		t.Error("Expected a log file after writing through the global logger")
	}
}

func TestTeeHandler(t *testing.T) {
	var buf strings.Builder
	tee := &teeHandler{
		targets: []slog.Handler{
			slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
			slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		},
	}

	if !tee.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected Enabled() true when any target accepts the level")
	}

	logger := slog.New(tee)
	logger.Info("info only")
	if count := strings.Count(buf.String(), "info only"); count != 1 {
		t.Errorf("Expected info record in the text handler only, got %d copies", count)
	}

	buf.Reset()
	logger.Warn("warn both")
	if count := strings.Count(buf.String(), "warn both"); count != 2 {
		t.Errorf("Expected warn record in both handlers, got %d copies", count)
	}

	if tee.WithAttrs([]slog.Attr{slog.String("key", "value")}) == nil {
		t.Error("WithAttrs returned nil")
	}
	if tee.WithGroup("group") == nil {
		t.Error("WithGroup returned nil")
	}
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logOutput.Reset()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
			if logs := logOutput.String(); logs != "" {
				t.Errorf("expected no logs for %s, got: %s", path, logs)
			}
		})
	}

	t.Run("regular paths are logged", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/catalog?page=2", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-789"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		logs := logOutput.String()
		if !strings.Contains(logs, "HTTP request") {
			t.Errorf("log should contain 'HTTP request', got: %s", logs)
		}
		if !strings.Contains(logs, "/api/catalog") {
			t.Errorf("log should contain the path, got: %s", logs)
		}
		if !strings.Contains(logs, "query=") {
			t.Errorf("log should contain the query when present, got: %s", logs)
		}
		if !strings.Contains(logs, "request_id=test-789") {
			t.Errorf("log should contain the request id, got: %s", logs)
		}
	})

	t.Run("missing request id falls back to unknown", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/pharmacies", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if logs := logOutput.String(); !strings.Contains(logs, "request_id=unknown") {
			t.Errorf("log should contain request_id=unknown, got: %s", logs)
		}
	})
}

func TestResponseWriterWrapper(t *testing.T) {
	recorder := httptest.NewRecorder()
	wrapper := &responseWriterWrapper{ResponseWriter: recorder}

	wrapper.WriteHeader(http.StatusNotFound)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}

	data := []byte("test data")
	n, err := wrapper.Write(data)
	if err != nil {
		t.Errorf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}
	if wrapper.bytesWritten != len(data) {
		t.Errorf("Expected bytesWritten %d, got %d", len(data), wrapper.bytesWritten)
	}
}
