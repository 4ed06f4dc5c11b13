package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bitgraph/internal/deps"
	"bitgraph/internal/media/ffprobe"
	"bitgraph/internal/services"
)

const versionTimeout = 10 * time.Second

// CheckFFprobeLocated resolves ffprobe and returns the path on success.
func CheckFFprobeLocated(locator *deps.Locator, configured string) (Result, string) {
	const name = "FFprobe located"

	path, err := deps.ResolveFFprobe(locator, configured)
	if err != nil {
		if errors.Is(err, deps.ErrInit) {
			return Result{Name: name, Detail: fmt.Sprintf("locator failed (%v)", err)}, ""
		}
		searched := configured
		if strings.TrimSpace(searched) == "" {
			searched = deps.FFprobeName
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s not found beside bitgraph, in system dirs or on PATH", searched)}, ""
	}
	return Result{Name: name, Passed: true, Detail: path}, path
}

// CheckExecutable verifies that path may be executed by the current user.
func CheckExecutable(name, path string) Result {
	if err := accessExecutable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not executable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path + " (execute ok)"}
}

// CheckFFprobeVersion runs the version query against the ffprobe at path.
func CheckFFprobeVersion(ctx context.Context, path string) Result {
	const name = "FFprobe version"

	checkCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	version, err := ffprobe.New(path, ffprobe.WithStderr(io.Discard)).FetchVersion(checkCtx)
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return Result{Name: name, Detail: "version query timed out"}
		}
		return Result{Name: name, Detail: services.Describe(err)}
	}
	return Result{Name: name, Passed: true, Detail: version.Version}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := accessReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableDir is CheckDirectoryAccess for directories bitgraph creates
// on demand: a missing directory passes when its nearest existing ancestor
// is writable.
func CheckWritableDir(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	check := CheckDirectoryAccess(name, ancestor)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s cannot be created: %s", path, check.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}
