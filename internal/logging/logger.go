package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bitgraph/internal/config"
)

// LogFileName is the file created under logging.dir.
const LogFileName = "bitgraph.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // "console" (default) or "json"
	// Writer receives the primary stream. Nil means stderr.
	Writer io.Writer
	// FilePath, when set, also receives every record as JSON.
	FilePath string
	// Development forces caller information on every line.
	Development bool
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	var level slog.LevelVar
	level.Set(parseLevel(opts.Level))

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	var primary slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		primary = newConsoleHandler(w, &level, withSource)
	case "json":
		primary = newJSONHandler(w, &level, withSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	path := strings.TrimSpace(opts.FilePath)
	if path == "" {
		return slog.New(primary), nil
	}
	file, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return slog.New(newFanoutHandler(primary, newJSONHandler(file, &level, true))), nil
}

// NewFromConfig builds a logger writing to stderr from the logging section of
// cfg.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	return New(ConfigOptions(cfg))
}

// ConfigOptions maps the logging section of cfg onto Options. A nil cfg yields
// info-level console output.
func ConfigOptions(cfg *config.Config) Options {
	if cfg == nil {
		return Options{Level: "info", Format: "console"}
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		opts.FilePath = filepath.Join(dir, LogFileName)
	}
	return opts
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
