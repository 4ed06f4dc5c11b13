package ffprobe

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"bitgraph/internal/logging"
	"bitgraph/internal/services"
)

// DefaultBinary is used when no explicit executable path is supplied.
const DefaultBinary = "ffprobe"

// PacketEntries is the -show_entries selector used for bitrate analysis.
const PacketEntries = "packet=stream_index,pts,pts_time,size:stream:format"

// CommandFunc constructs the process used to run ffprobe.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Prober runs ffprobe and decodes its JSON output. A Prober is safe to share;
// each call spawns its own process and blocks until that process exits or
// its output pipe closes.
type Prober struct {
	binary  string
	logger  *slog.Logger
	stderr  io.Writer
	command CommandFunc
}

// Option customises a Prober.
type Option func(*Prober)

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "ffprobe")
		}
	}
}

// WithStderr redirects ffprobe's standard error. The default passes it
// through to the controlling process.
func WithStderr(w io.Writer) Option {
	return func(p *Prober) {
		p.stderr = w
	}
}

// WithCommandFunc replaces the process factory.
func WithCommandFunc(fn CommandFunc) Option {
	return func(p *Prober) {
		if fn != nil {
			p.command = fn
		}
	}
}

// New returns a Prober for the given executable path.
func New(binary string, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	p := &Prober{
		binary:  binary,
		logger:  logging.NewNop(),
		stderr:  os.Stderr,
		command: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Binary returns the executable this Prober runs.
func (p *Prober) Binary() string {
	return p.binary
}

// ProbeArgs returns the ffprobe arguments for a packet-level probe of path.
// An empty selector probes every stream.
func ProbeArgs(path, selector string) []string {
	args := []string{
		"-hide_banner",
		"-show_error",
		"-show_entries", PacketEntries,
		"-of", "json=c=1",
	}
	if selector = strings.TrimSpace(selector); selector != "" {
		args = append(args, "-select_streams", selector)
	}
	return append(args, path)
}

// VersionArgs returns the ffprobe arguments for the program version query.
func VersionArgs() []string {
	return []string{"-hide_banner", "-show_program_version", "-of", "json=c=1"}
}

// Probe inspects path and decodes the packet, stream and format sections.
//
// Failures fall into three groups that callers should handle separately:
// ErrInvalidInput when path is missing or not a regular file (nothing is
// spawned), ErrLaunch/ErrDecode when ffprobe could not run or its output was
// unusable, and ErrToolReported when ffprobe ran but rejected the input. In
// the last case the decoded data is returned alongside the error.
func (p *Prober) Probe(ctx context.Context, path, selector string) (ProbeData, error) {
	if err := checkInput(path); err != nil {
		return ProbeData{}, err
	}

	var data ProbeData
	if err := p.executeJSON(ctx, ProbeArgs(path, selector), "probe data", &data); err != nil {
		return ProbeData{}, err
	}
	if data.Error != nil {
		logging.WarnWithContext(p.logger, "ffprobe rejected input", "ffprobe_input_rejected",
			logging.String(logging.FieldMediaPath, path),
			logging.Int("ffprobe_code", data.Error.Code),
			logging.String("error_message", data.Error.Message),
			logging.String(logging.FieldErrorHint, "verify the file is a readable media container"),
			logging.String(logging.FieldImpact, "no bitrate graph for this file"))
		return data, services.Wrap(services.ErrToolReported, "ffprobe", "probe", path, data.Error)
	}
	p.logger.Debug("ffprobe completed",
		logging.String(logging.FieldMediaPath, path),
		logging.Int("packet_count", len(data.Packets)),
		logging.Int("stream_count", len(data.Streams)))
	return data, nil
}

// FetchVersion queries ffprobe for its version record.
func (p *Prober) FetchVersion(ctx context.Context) (ProgramVersion, error) {
	var envelope programVersionEnvelope
	if err := p.executeJSON(ctx, VersionArgs(), "program version", &envelope); err != nil {
		return ProgramVersion{}, fmt.Errorf("fetch version: %w", err)
	}
	if envelope.ProgramVersion == nil {
		return ProgramVersion{}, services.Wrap(services.ErrDecode, "ffprobe", "version", `missing field "program_version"`, nil)
	}
	return *envelope.ProgramVersion, nil
}

func checkInput(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrInvalidInput, "ffprobe", "probe", "empty path", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrInvalidInput, "ffprobe", "probe", fmt.Sprintf("path %q does not exist", path), nil)
		}
		return services.Wrap(services.ErrInvalidInput, "ffprobe", "probe", fmt.Sprintf("stat %q", path), err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrInvalidInput, "ffprobe", "probe", fmt.Sprintf("path %q is not a file", path), nil)
	}
	return nil
}

// executeJSON spawns ffprobe, decodes a single JSON document from its
// stdout into target and reaps the process.
func (p *Prober) executeJSON(ctx context.Context, args []string, what string, target any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := p.command(ctx, p.binary, args...)
	cmd.Stderr = p.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrLaunch, "ffprobe", "pipe", "", err)
	}

	start := time.Now()
	p.logger.Debug("starting ffprobe",
		logging.String("command", p.binary),
		logging.String("args", strings.Join(args, " ")))

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrLaunch, "ffprobe", "spawn", p.binary, err)
	}

	decodeErr := json.NewDecoder(bufio.NewReader(stdout)).Decode(target)
	if decodeErr != nil {
		if errors.Is(decodeErr, io.EOF) {
			// stdout closed without a document; the exit status says why
			waitErr := cmd.Wait()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return services.Wrap(services.ErrLaunch, "ffprobe", "run", "cancelled", ctxErr)
			}
			return services.Wrap(services.ErrDecode, "ffprobe", "decode", what+": empty output", errors.Join(decodeErr, waitErr))
		}
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrLaunch, "ffprobe", "run", "cancelled", ctxErr)
		}
		return services.Wrap(services.ErrDecode, "ffprobe", "decode", what, decodeErr)
	}

	// Drain trailing output so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		// ffprobe exits non-zero when it reports an error section; the
		// decoded document is authoritative.
		p.logger.Debug("ffprobe exited with error after producing output",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)))
		return nil
	}
	p.logger.Debug("ffprobe finished", logging.Duration("elapsed", time.Since(start)))
	return nil
}
