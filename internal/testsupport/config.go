package testsupport

import (
	"path/filepath"
	"testing"

	"bitgraph/internal/config"
)

// ConfigOption adjusts a config built by NewConfig. base is the temp
// directory holding that config's writable paths.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns defaults with the history file and log directory moved
// under a fresh temp directory, then applies opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.History.Path = filepath.Join(base, "state", "recent.json")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithStubbedFFprobe installs an ffprobe stub running body and points the
// config at it.
func WithStubbedFFprobe(body string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		cfg.FFprobe.Path = WriteFFprobeStub(t, filepath.Join(base, "bin"), body)
	}
}

// WithoutHistory keeps the recent files list in memory.
func WithoutHistory() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.History.Enabled = false }
}

// WithoutLogDir drops the JSON log file.
func WithoutLogDir() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.Logging.Dir = "" }
}
