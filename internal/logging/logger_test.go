package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmsimport/internal/config"
	"cmsimport/internal/logging"
	"cmsimport/internal/services"
)

func boolPtr(v bool) *bool { return &v }

func TestNewConsoleLoggerWritesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
		Color:       boolPtr(false),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "dispatcher").Info("row created", logging.String(logging.FieldTitle, "About us"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "INFO [dispatcher] – row created") {
		t.Fatalf("expected console header, got %q", text)
	}
	if !strings.Contains(text, "    - title: \"About us\"") {
		t.Fatalf("expected title field line, got %q", text)
	}
	if strings.Contains(text, "\x1b[") {
		t.Fatalf("expected no ANSI codes when color disabled, got %q", text)
	}
}

func TestConsoleLoggerIncludesSubjectAndColor(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
		Color:       boolPtr(true),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithVariant(services.WithRowIndex(context.Background(), 4), "content")
	logging.WithContext(ctx, logger).Info("hidden below warn")
	logging.WarnWithContext(logging.WithContext(ctx, logger), "row failed", "row_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "hidden below warn") {
		t.Fatalf("info line should be filtered at warn level: %q", text)
	}
	if !strings.Contains(text, "content · Row #4") {
		t.Fatalf("expected subject in header, got %q", text)
	}
	if !strings.Contains(text, "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected colored warn label, got %q", text)
	}
	for _, key := range []string{"event_type: row_failed", "error_hint:", "impact:"} {
		if !strings.Contains(text, key) {
			t.Fatalf("expected %q in %q", key, text)
		}
	}
}

func TestDebugLoggerIncludesCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.Int64(logging.FieldContentID, 42), logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json line: %v (%q)", err, content)
	}
	if record["msg"] != "json message" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v, want info", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
	if record[logging.FieldContentID] != float64(42) {
		t.Fatalf("content_id = %v", record[logging.FieldContentID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lvl.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("debug hidden")
	logger.Info("info shown")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "debug hidden") || !strings.Contains(string(content), "info shown") {
		t.Fatalf("unexpected level filtering: %q", content)
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("config logger")

	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file at %s: %v", cfg.LogPath(), err)
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithVariant(ctx, "asset")
	ctx = services.WithRowIndex(ctx, 7)

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[logging.FieldRunID] != "run-1" || got[logging.FieldVariant] != "asset" || got[logging.FieldRow] != "7" {
		t.Fatalf("unexpected context fields: %v", got)
	}
	if logging.ContextFields(context.Background()) != nil && len(logging.ContextFields(context.Background())) != 0 {
		t.Fatal("expected no fields for empty context")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}
