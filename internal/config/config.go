package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bitgraph/internal/fileutil"
	"bitgraph/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// FFprobe contains configuration for locating and running ffprobe.
type FFprobe struct {
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SelectStreams  string `toml:"select_streams"`
}

// Bitrate contains configuration for packet aggregation.
type Bitrate struct {
	BucketSeconds float64 `toml:"bucket_seconds"`
}

// History contains configuration for the recently opened files list.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

// Plot contains configuration for rendered graphs.
type Plot struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Format string `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for bitgraph.
//
// Configuration sections by subsystem:
//   - FFprobe: executable override, per-probe timeout and stream selector
//   - Bitrate: aggregation bucket width
//   - History: recent files list persistence
//   - Plot: rendered graph dimensions and format
//   - Logging: log format, level, and optional file directory
type Config struct {
	FFprobe FFprobe `toml:"ffprobe"`
	Bitrate Bitrate `toml:"bitrate"`
	History History `toml:"history"`
	Plot    Plot    `toml:"plot"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or searches the default locations when path
// is empty, then normalizes and validates it. A missing file yields defaults.
// It returns the config, the file it resolved to and whether that file
// exists. Unknown keys are rejected so typos surface instead of being
// silently ignored.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return services.Wrap(services.ErrConfiguration, "config", "parse", path,
				fmt.Errorf("unknown keys:\n%s", strict.String()))
		}
		return services.Wrap(services.ErrConfiguration, "config", "parse", path, err)
	}
	return nil
}

// resolveConfigPath expands an explicit path, or picks the first existing
// file among the per-user config and ./bitgraph.toml. With nothing found it
// reports the per-user location as absent.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	candidates := make([]string, 0, 2)
	for _, raw := range []string{defaultConfigPath, "bitgraph.toml"} {
		expanded, err := expandPath(raw)
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, expanded)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true, nil
		}
	}
	return candidates[0], false, nil
}

// FFprobeBinary returns the ffprobe executable configured by the user, or an
// empty string when it should be discovered.
func (c *Config) FFprobeBinary() string {
	return strings.TrimSpace(c.FFprobe.Path)
}

// ProbeTimeout returns the per-probe deadline. Zero means no deadline.
func (c *Config) ProbeTimeout() time.Duration {
	if c.FFprobe.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.FFprobe.TimeoutSeconds) * time.Second
}

// HistoryPath returns the recent files path, or an empty string when the
// list should stay in memory.
func (c *Config) HistoryPath() string {
	if !c.History.Enabled {
		return ""
	}
	return c.History.Path
}

// expandPath resolves a leading ~ against the home directory and makes the
// result absolute. Empty input stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimLeft(value[1:], `/\`))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the config path rules (~ expansion, absolute result) to
// user-supplied paths outside the config file.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// defaultHistoryPath follows the XDG state directory, falling back to
// ~/.local/state.
func defaultHistoryPath() string {
	if base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); base != "" {
		return filepath.Join(base, "bitgraph", "recent.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "bitgraph", "recent.json")
	}
	return "~/.local/state/bitgraph/recent.json"
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
