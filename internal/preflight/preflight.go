package preflight

import (
	"context"
	"path/filepath"

	"bitgraph/internal/config"
	"bitgraph/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the readiness checks for cfg. ffprobe checks after the
// first failing one are skipped since they cannot succeed. A nil locator uses
// the host environment.
func RunAll(ctx context.Context, cfg *config.Config, locator *deps.Locator) []Result {
	if cfg == nil {
		return nil
	}

	results := make([]Result, 0, 5)

	located, path := CheckFFprobeLocated(locator, cfg.FFprobeBinary())
	results = append(results, located)
	if located.Passed {
		exec := CheckExecutable("FFprobe executable", path)
		results = append(results, exec)
		if exec.Passed {
			results = append(results, CheckFFprobeVersion(ctx, path))
		}
	}

	// History directory (only when persisted)
	if historyPath := cfg.HistoryPath(); historyPath != "" {
		results = append(results, CheckWritableDir("History directory", filepath.Dir(historyPath)))
	}

	// Log directory (when configured)
	if cfg.Logging.Dir != "" {
		results = append(results, CheckWritableDir("Log directory", cfg.Logging.Dir))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
