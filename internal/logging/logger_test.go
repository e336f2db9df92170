package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ocat/internal/faults"
	"ocat/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "ocat.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("registry initialized", logging.Int("rows", 42))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "registry initialized") {
		t.Fatalf("expected message in log output, got %q", string(data))
	}
	if !strings.Contains(string(data), `"rows":42`) {
		t.Fatalf("expected structured attr in log output, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := faults.WithIdentifier(context.Background(), "o62500")
	ctx = faults.WithStage(ctx, "content_rewritten")
	logging.WithContext(ctx, logger).Info("rewrote header")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"identifier":"o62500"`) {
		t.Fatalf("expected identifier field, got %q", out)
	}
	if !strings.Contains(out, `"stage":"content_rewritten"`) {
		t.Fatalf("expected stage field, got %q", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("expected nop logger to be disabled")
	}
}
