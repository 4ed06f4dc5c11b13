package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bitgraph/internal/config"
	"bitgraph/internal/logging"
	"bitgraph/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("k", "v"))

	content, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", content, err)
	}
	if record["msg"] != "file message" || record["k"] != "v" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func consoleLogger(t *testing.T, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: level, Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, &buf
}

func TestConsoleLoggerCallerDependsOnLevel(t *testing.T) {
	info, infoOut := consoleLogger(t, "info")
	info.Info("message without caller")
	if strings.Contains(infoOut.String(), ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", infoOut)
	}

	debug, debugOut := consoleLogger(t, "debug")
	debug.Info("message with caller")
	if !strings.Contains(debugOut.String(), "logger_test.go:") {
		t.Fatalf("expected caller information at debug level, got %q", debugOut)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logger, buf := consoleLogger(t, "info")

	ctx := services.WithMediaPath(context.Background(), "/media/movies/clip.mkv")
	ctx = services.WithStep(ctx, "probe")
	ctx = services.WithRequestID(ctx, "req-1")
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "ffprobe")

	logging.WarnWithContext(logger, "ffprobe rejected input", "ffprobe_input_rejected",
		logging.Int64("input_bytes", 2048),
		logging.Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	for _, want := range []string{
		"WARN  [ffprobe] clip.mkv (probe) – ffprobe rejected input",
		"- Event: ffprobe_input_rejected",
		"- Hint:",
		"- Impact:",
		"- Elapsed: 1.5s",
		"- Input Bytes: 2.0 KiB",
		"+ 1 more field hidden",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in console output, got %q", want, out)
		}
	}
	if strings.Contains(out, "req-1") {
		t.Fatalf("correlation id should be hidden at info level, got %q", out)
	}
	if strings.Index(out, "Event:") > strings.Index(out, "Input Bytes:") {
		t.Fatalf("expected event before other fields, got %q", out)
	}
}

func TestConsoleLoggerDebugShowsEverything(t *testing.T) {
	logger, buf := consoleLogger(t, "debug")
	ctx := services.WithRequestID(context.Background(), "req-2")
	logging.WithContext(ctx, logger).WithGroup("probe").Debug("ffprobe args",
		logging.String("selector", "v:0"),
		logging.String("note", "two words"))

	out := buf.String()
	for _, want := range []string{"DEBUG", "correlation_id=req-2", "probe.selector=v:0", `probe.note="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in debug output, got %q", want, out)
		}
	}
}

func TestConsoleLoggerLaterAttrWins(t *testing.T) {
	logger, buf := consoleLogger(t, "info")
	logger.With(logging.String("output", "a.png")).Info("rendered", logging.String("output", "b.png"))
	out := buf.String()
	if strings.Contains(out, "a.png") || strings.Count(out, "Output:") != 1 {
		t.Fatalf("expected a single overriding output field, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info level filtering, got %q", buf.String())
	}
}

type recordingHandler struct {
	attrs   []slog.Attr
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(h.attrs, attrs...)
	return h
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithMediaPath(context.Background(), "/m/a.mp4")
	ctx = services.WithStep(ctx, "aggregate")
	ctx = services.WithRequestID(ctx, "req-xyz")

	handler := &recordingHandler{}
	logging.WithContext(ctx, slog.New(handler)).Info("contextual log")

	if len(handler.records) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(handler.records))
	}
	got := map[string]string{}
	for _, attr := range handler.attrs {
		got[attr.Key] = attr.Value.String()
	}
	want := map[string]string{
		logging.FieldMediaPath:     "/m/a.mp4",
		logging.FieldStep:          "aggregate",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("field %s = %q, want %q", key, got[key], value)
		}
	}
}

func TestWarnWithContextKeepsExplicitFields(t *testing.T) {
	handler := &recordingHandler{}
	logging.WarnWithContext(slog.New(handler), "msg", "evt", logging.String(logging.FieldImpact, "custom"))

	if len(handler.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(handler.records))
	}
	counts := map[string]int{}
	var impact string
	handler.records[0].Attrs(func(a slog.Attr) bool {
		counts[a.Key]++
		if a.Key == logging.FieldImpact {
			impact = a.Value.String()
		}
		return true
	})
	if counts[logging.FieldImpact] != 1 || impact != "custom" {
		t.Fatalf("expected single custom impact, got %v %q", counts, impact)
	}
	if counts[logging.FieldEventType] != 1 || counts[logging.FieldErrorHint] != 1 {
		t.Fatalf("expected injected event and hint, got %v", counts)
	}
}

func TestErrorAttrHandlesNil(t *testing.T) {
	if got := logging.Error(nil).Value.String(); got != "<nil>" {
		t.Fatalf("unexpected nil error attr %q", got)
	}
	if got := logging.Error(errors.New("boom")).Value.Any().(error).Error(); got != "boom" {
		t.Fatalf("unexpected error attr %q", got)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "evt")
}
