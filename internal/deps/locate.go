package deps

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"bitgraph/internal/services"
)

var (
	// ErrNotFound reports that neither the directory scan nor the PATH search
	// produced an existing file. It is always tagged with services.ErrDiscovery.
	ErrNotFound = errors.New("program not found")
	// ErrInit reports that the locator could not resolve its own executable or
	// working directory.
	ErrInit = errors.New("locator initialisation failed")
)

// SearchFunc runs the platform PATH-search utility for name and returns its
// raw standard output.
type SearchFunc func(name string) (string, error)

// Locator finds helper programs, preferring copies shipped alongside the
// application over whatever PATH offers. The zero value uses the host
// environment.
type Locator struct {
	Executable func() (string, error)
	Getwd      func() (string, error)
	// SystemDirs overrides the fixed system directories. A nil slice selects
	// the platform defaults; an empty slice disables them.
	SystemDirs []string
	Search     SearchFunc
	GOOS       string
}

// NewLocator returns a Locator wired to the running process.
func NewLocator() *Locator {
	return &Locator{
		Executable: os.Executable,
		Getwd:      os.Getwd,
		Search:     searchPath,
		GOOS:       runtime.GOOS,
	}
}

// DefaultSystemDirs lists the fixed install locations scanned after the
// application and working directories.
func DefaultSystemDirs(goos string) []string {
	switch goos {
	case "windows":
		return nil
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		return []string{"/usr/local/bin", "/usr/bin"}
	}
}

// ExecutableName returns name adjusted for the target platform.
func ExecutableName(name, goos string) string {
	if goos == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// Candidates returns the ordered file paths scanned before falling back to
// the PATH search.
func (l *Locator) Candidates(name string) ([]string, error) {
	goos := l.goos()
	exe, err := l.executable()
	if err != nil {
		return nil, fmt.Errorf("%w: resolve executable: %w", ErrInit, err)
	}
	cwd, err := l.getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: resolve working directory: %w", ErrInit, err)
	}

	exeDir := filepath.Dir(exe)
	dirs := []string{
		exeDir,
		filepath.Join(exeDir, "lib"),
		cwd,
		filepath.Join(cwd, "lib"),
	}
	system := l.SystemDirs
	if system == nil {
		system = DefaultSystemDirs(goos)
	}
	dirs = append(dirs, system...)

	file := ExecutableName(name, goos)
	candidates := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		candidates = append(candidates, filepath.Join(dir, file))
	}
	return candidates, nil
}

// Find returns the first existing copy of name. A name containing a path
// separator is checked as given and never searched for.
func (l *Locator) Find(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrDiscovery, "deps", "find", "empty program name", ErrNotFound)
	}
	if strings.ContainsAny(name, `/\`) {
		if isRegularFile(name) {
			return name, nil
		}
		return "", services.Wrap(services.ErrDiscovery, "deps", "find", name, ErrNotFound)
	}

	candidates, err := l.Candidates(name)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}

	search := l.Search
	if search == nil {
		search = searchPath
	}
	if out, err := search(ExecutableName(name, l.goos())); err == nil {
		if path := firstLine(out); path != "" && isRegularFile(path) {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrDiscovery, "deps", "find", name, ErrNotFound)
}

func (l *Locator) goos() string {
	if l.GOOS == "" {
		return runtime.GOOS
	}
	return l.GOOS
}

func (l *Locator) executable() (string, error) {
	if l.Executable == nil {
		return os.Executable()
	}
	return l.Executable()
}

func (l *Locator) getwd() (string, error) {
	if l.Getwd == nil {
		return os.Getwd()
	}
	return l.Getwd()
}

// searchPath asks `which` (or `where.exe` on Windows) for name.
func searchPath(name string) (string, error) {
	tool := "which"
	if runtime.GOOS == "windows" {
		tool = "where.exe"
	}
	var stdout bytes.Buffer
	cmd := exec.Command(tool, name)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func firstLine(output string) string {
	output = strings.TrimRight(output, " \t\r\n")
	if idx := strings.IndexAny(output, "\r\n"); idx >= 0 {
		output = output[:idx]
	}
	return strings.TrimSpace(output)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Resolved memoises a successful lookup so the program is discovered once per
// process and its path never changes afterwards. Failed lookups are retried.
type Resolved struct {
	locator *Locator
	name    string

	mu   sync.Mutex
	path string
}

// NewResolved returns a memoising lookup of name through locator.
func NewResolved(locator *Locator, name string) *Resolved {
	if locator == nil {
		locator = NewLocator()
	}
	return &Resolved{locator: locator, name: name}
}

// Path returns the located program, running the lookup on first use.
func (r *Resolved) Path() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path != "" {
		return r.path, nil
	}
	path, err := r.locator.Find(r.name)
	if err != nil {
		return "", err
	}
	r.path = path
	return path, nil
}

// FFprobeName is the program bitgraph looks for when no path is configured.
const FFprobeName = "ffprobe"

// ResolveFFprobe returns the location of ffprobe, honouring a configured
// override before the normal search.
func ResolveFFprobe(locator *Locator, configured string) (string, error) {
	if locator == nil {
		locator = NewLocator()
	}
	name := strings.TrimSpace(configured)
	if name == "" {
		name = FFprobeName
	}
	return locator.Find(name)
}
