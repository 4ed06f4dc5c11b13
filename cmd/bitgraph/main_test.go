package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bitgraph/internal/config"
	"bitgraph/internal/services"
	"bitgraph/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	mediaPath  string
	cfg        *config.Config
}

func setupCLITestEnv(t *testing.T, probeJSON string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv(config.EnvFFprobe, "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedFFprobe(testsupport.FFprobeScript(probeJSON)))
	configPath := filepath.Join(base, "bitgraph.toml")
	writeTestConfig(t, configPath, cfg)

	media := filepath.Join(base, "media", "clip.mkv")
	testsupport.WriteMedia(t, media, 4096)

	return &cliTestEnv{baseDir: base, configPath: configPath, mediaPath: media, cfg: cfg}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[ffprobe]\npath = %q\nselect_streams = %q\n\n[history]\nenabled = %t\npath = %q\nlimit = %d\n\n[logging]\nformat = \"json\"\nlevel = \"debug\"\ndir = %q\n",
		cfg.FFprobe.Path,
		cfg.FFprobe.SelectStreams,
		cfg.History.Enabled,
		cfg.History.Path,
		cfg.History.Limit,
		cfg.Logging.Dir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIBitrateTable(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, stderr, err := runCLI(t, []string{"bitrate", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("bitrate: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{
		"KiB/s",
		"clip.mkv: 2 buckets of 1.000s, peak 3.0 KiB/s at 0.500s, mean 3.0 KiB/s",
		"Stream 0: 3 packets, 6.0 KiB",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr, `"correlation_id"`) {
		t.Fatalf("expected JSON logs with a correlation id on stderr, got:\n%s", stderr)
	}

	logData, err := os.ReadFile(filepath.Join(env.cfg.Logging.Dir, "bitgraph.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(logData), "bitrate computed") {
		t.Fatalf("log file missing bitrate entry:\n%s", logData)
	}
}

func TestCLIBitrateJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"bitrate", "--json", "--width", "0.5", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("bitrate --json: %v", err)
	}
	var report bitrateReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if report.BucketSeconds != 0.5 || len(report.Bars) != 4 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Stats.Packets != 3 || report.Stats.Bytes != 6144 {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	if report.Bars[0].Value != 4 || report.Bars[1].Value != 2 || report.Bars[2].Value != 0 || report.Bars[3].Value != 6 {
		t.Fatalf("unexpected bars %+v", report.Bars)
	}
}

func TestCLIBitrateRejectsBadWidth(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	_, _, err := runCLI(t, []string{"bitrate", "--width", "-1", env.mediaPath}, env.configPath)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCLIMissingMediaFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	_, _, err := runCLI(t, []string{"bitrate", filepath.Join(env.baseDir, "nope.mkv")}, env.configPath)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if msg := services.Describe(err); !strings.HasPrefix(msg, "Cannot open file") {
		t.Fatalf("unexpected description %q", msg)
	}
}

func TestCLIProbeJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"probe", "--json", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	var report struct {
		File    string         `json:"file"`
		Packets map[string]int `json:"packets_per_stream"`
		Format  struct {
			Filename string `json:"filename"`
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecName string `json:"codec_name"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if report.Packets["0"] != 3 || report.Packets["1"] != 1 {
		t.Fatalf("packets per stream = %v", report.Packets)
	}
	if report.Format.Filename != "clip.mkv" || len(report.Streams) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCLIProbeTable(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"probe", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	for _, want := range []string{"Matroska / WebM", "6.5 KiB", "h264", "aac"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIProbeToolError(t *testing.T) {
	env := setupCLITestEnv(t, `{"error": {"code": -1094995529, "string": "Invalid data found when processing input"}}`)

	_, _, err := runCLI(t, []string{"probe", env.mediaPath}, env.configPath)
	if !errors.Is(err, services.ErrToolReported) {
		t.Fatalf("expected tool reported error, got %v", err)
	}
	msg := services.Describe(err)
	if !strings.Contains(msg, "Invalid data found") || !strings.Contains(msg, "-1094995529") {
		t.Fatalf("unexpected description %q", msg)
	}
}

func TestCLIPlot(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	target := filepath.Join(env.baseDir, "out", "graph.svg")

	out, _, err := runCLI(t, []string{"plot", env.mediaPath, "-o", target}, env.configPath)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(out, "Wrote SVG graph of clip.mkv") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatal("graph is not an SVG")
	}

	if _, _, err := runCLI(t, []string{"plot", env.mediaPath}, env.configPath); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected missing --output error, got %v", err)
	}
}

func TestCLIRecentLifecycle(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"recent", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list: %v", err)
	}
	if !strings.Contains(out, "No recent files") {
		t.Fatalf("expected empty list, got %q", out)
	}

	if _, _, err := runCLI(t, []string{"bitrate", env.mediaPath}, env.configPath); err != nil {
		t.Fatalf("bitrate: %v", err)
	}

	out, _, err = runCLI(t, []string{"recent", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list --json: %v", err)
	}
	var entries []string
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0] != env.mediaPath {
		t.Fatalf("entries = %v", entries)
	}

	out, _, err = runCLI(t, []string{"recent", "open", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("recent open: %v", err)
	}
	if !strings.Contains(out, "clip.mkv: 2 buckets") {
		t.Fatalf("unexpected open output:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"recent", "open", "2"}, env.configPath); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected out of range error, got %v", err)
	}

	if _, _, err := runCLI(t, []string{"recent", "clear"}, env.configPath); err != nil {
		t.Fatalf("recent clear: %v", err)
	}
	out, _, err = runCLI(t, []string{"recent", "list"}, env.configPath)
	if err != nil || !strings.Contains(out, "No recent files") {
		t.Fatalf("after clear: %q, %v", out, err)
	}
}

func TestCLIRecentSkipsMissingFiles(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	if _, _, err := runCLI(t, []string{"bitrate", filepath.Join(env.baseDir, "nope.mkv")}, env.configPath); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	out, _, err := runCLI(t, []string{"recent", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list: %v", err)
	}
	if !strings.Contains(out, "No recent files") {
		t.Fatalf("missing file was remembered:\n%s", out)
	}
}

func TestCLIRecentStoresAbsolutePaths(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	t.Chdir(filepath.Dir(env.mediaPath))
	for _, arg := range []string{"clip.mkv", "./clip.mkv", filepath.Join("..", "media", "clip.mkv"), env.mediaPath} {
		if _, _, err := runCLI(t, []string{"bitrate", arg}, env.configPath); err != nil {
			t.Fatalf("bitrate %s: %v", arg, err)
		}
	}

	out, _, err := runCLI(t, []string{"recent", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list --json: %v", err)
	}
	var entries []string
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 1 || !filepath.IsAbs(entries[0]) || filepath.Base(entries[0]) != "clip.mkv" {
		t.Fatalf("entries = %v", entries)
	}

	t.Chdir(env.baseDir)
	out, _, err = runCLI(t, []string{"recent", "open", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("recent open from another directory: %v", err)
	}
	if !strings.Contains(out, "clip.mkv: 2 buckets") {
		t.Fatalf("unexpected open output:\n%s", out)
	}
}

func TestCLIRecentListAbbreviatesHome(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	home := filepath.Join(env.baseDir, "home")
	media := filepath.Join(home, "videos", "clip.mkv")
	testsupport.WriteMedia(t, media, 4096)

	if _, _, err := runCLI(t, []string{"bitrate", media}, env.configPath); err != nil {
		t.Fatalf("bitrate: %v", err)
	}

	out, _, err := runCLI(t, []string{"recent", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list: %v", err)
	}
	if want := filepath.Join("~", "videos", "clip.mkv"); !strings.Contains(out, want) {
		t.Fatalf("expected %q in table:\n%s", want, out)
	}
	if strings.Contains(out, home) {
		t.Fatalf("table shows the raw home directory:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"recent", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent list --json: %v", err)
	}
	var entries []string
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0] != media {
		t.Fatalf("json entries = %v, want raw %s", entries, media)
	}
}

func TestCLIBitrateIgnoresConfiguredSelector(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	audioOnly := `{
"packets": [{"stream_index": 1, "pts": 0, "pts_time": "0.000000", "size": "512"}],
"streams": [{"index": 1, "codec_name": "aac", "codec_type": "audio"}],
"format": {"filename": "clip.mkv", "format_name": "matroska,webm", "duration": "2.000000"}
}`
	body := `for arg in "$@"; do
  if [ "$arg" = "-select_streams" ]; then
    cat <<'JSON'
` + audioOnly + `
JSON
    exit 0
  fi
done
` + testsupport.FFprobeScript(testsupport.PacketsJSON)
	env.cfg.FFprobe.Path = testsupport.WriteFFprobeStub(t, filepath.Join(env.baseDir, "selector-bin"), body)
	env.cfg.FFprobe.SelectStreams = "a"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"bitrate", "--json", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("bitrate: %v", err)
	}
	var bitrateOut struct {
		Stats struct {
			Packets int `json:"packets"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &bitrateOut); err != nil {
		t.Fatalf("decode bitrate: %v\n%s", err, out)
	}
	if bitrateOut.Stats.Packets != 3 {
		t.Fatalf("bitrate used %d stream 0 packets, want 3", bitrateOut.Stats.Packets)
	}

	out, _, err = runCLI(t, []string{"probe", "--json", env.mediaPath}, env.configPath)
	if err != nil {
		t.Fatalf("stream report: %v", err)
	}
	var report struct {
		Selector string         `json:"selector"`
		Packets  map[string]int `json:"packets_per_stream"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Selector != "a" || report.Packets["0"] != 0 || report.Packets["1"] != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCLIRecentDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	env.cfg.History.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"recent", "list"}, env.configPath)
	if !errors.Is(err, errHistoryDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestCLICheck(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"FFprobe located:", "[OK] 6.1.1", "History directory:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("output to a buffer must not be colourised")
	}
}

func TestCLICheckReportsMissingFFprobe(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)
	t.Setenv(config.EnvFFprobe, filepath.Join(env.baseDir, "missing", "ffprobe"))

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if !strings.Contains(out, "FFprobe located:") || !strings.Contains(out, "[ERROR]") {
		t.Fatalf("expected a failed locate line, got:\n%s", out)
	}
	if strings.Contains(out, "FFprobe version:") {
		t.Fatalf("version check should be skipped after a failed locate:\n%s", out)
	}
}

func TestCLIVersion(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.PacketsJSON)

	out, _, err := runCLI(t, []string{"version"}, env.configPath)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "bitgraph dev") || !strings.Contains(out, "ffprobe 6.1.1") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv(config.EnvFFprobe, "")
	target := filepath.Join(base, "conf", "bitgraph.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration to "+target) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Config path: "+target) || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLIConfigValidateReportsErrors(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	path := filepath.Join(base, "bad.toml")
	if err := os.WriteFile(path, []byte("[bitrate]\nbucket_seconds = -2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
