package analysis

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"bitgraph/internal/bitrate"
	"bitgraph/internal/logging"
	"bitgraph/internal/media/ffprobe"
	"bitgraph/internal/services"
)

// Prober runs ffprobe against one file.
type Prober interface {
	Probe(ctx context.Context, path, selector string) (ffprobe.ProbeData, error)
}

// Recorder remembers opened files.
type Recorder interface {
	Record(ctx context.Context, path string) error
}

// Session tracks the analysis of the currently selected file. It is safe to
// use from several goroutines; transitions are serialised.
type Session struct {
	mu       sync.Mutex
	status   Status
	selector string
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder pushes every probed path that exists into r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithSelector passes an ffprobe stream selector to every probe.
func WithSelector(selector string) Option {
	return func(s *Session) { s.selector = selector }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession returns a session in the NotSelected state.
func NewSession(opts ...Option) *Session {
	s := &Session{status: Status{State: StateNotSelected}}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "analysis")
	return s
}

// Status returns a copy of the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Bars = slices.Clone(st.Bars)
	return st
}

// Select makes path the current file, discarding any previous analysis.
func (s *Session) Select(_ context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{State: StatePendingProbe, Path: path}
}

// Close returns the session to NotSelected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{State: StateNotSelected}
}

// Probe runs p against the selected file. On failure the session moves to
// ProbeFailed and the error is returned; on success it moves to Ready.
//
// The path is handed to the attached Recorder unless the failure was
// services.ErrInvalidInput, so files that do not exist are never
// remembered. A recorder failure is logged and does not block the analysis.
func (s *Session) Probe(ctx context.Context, p Prober) error {
	s.mu.Lock()
	if err := checkTransition("probe", s.status.State); err != nil {
		s.mu.Unlock()
		return err
	}
	path := s.status.Path
	s.mu.Unlock()

	ctx = services.WithStep(services.WithMediaPath(ctx, path), "probe")
	logger := s.logger.With(logging.MediaPath(path), logging.String(logging.FieldStep, "probe"))
	started := time.Now()

	data, err := p.Probe(ctx, path, s.selector)
	if !errors.Is(err, services.ErrInvalidInput) {
		s.record(ctx, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State != StatePendingProbe || s.status.Path != path {
		// Another file was selected while this probe was running.
		return ErrInvalidTransition
	}
	if err != nil {
		s.status = Status{State: StateProbeFailed, Path: path, Err: err}
		logger.Debug("probe failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return err
	}
	s.status = Status{State: StateReady, Path: path, Data: &data}
	logger.Info("probe complete",
		logging.Int("packet_count", len(data.Packets)),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (s *Session) record(ctx context.Context, path string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remember opened file", "recent_record_failed",
			logging.MediaPath(path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path in the config"),
			logging.String(logging.FieldImpact, "file will not appear in recent list"))
	}
}

// Render aggregates the probed packets into bars of the given width. It may
// be called again from Rendered to re-bucket with a different width. On an
// aggregation failure the session stays where it was.
func (s *Session) Render(width float64) ([]bitrate.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkTransition("render", s.status.State); err != nil {
		return nil, err
	}
	bars, stats, err := bitrate.AggregateWithStats(*s.status.Data, width)
	if err != nil {
		return nil, err
	}
	if stats.Clamped > 0 {
		logging.WarnWithContext(s.logger, "packets outside the declared duration", "bitrate_clamped",
			logging.MediaPath(s.status.Path),
			logging.Int("clamped_packets", stats.Clamped),
			logging.String(logging.FieldAlert, "duration_mismatch"),
			logging.String(logging.FieldErrorHint, "container duration may be wrong"),
			logging.String(logging.FieldImpact, "edge buckets include out-of-range packets"))
	}
	s.status = Status{
		State: StateRendered,
		Path:  s.status.Path,
		Data:  s.status.Data,
		Bars:  bars,
		Stats: stats,
		Width: width,
	}
	return slices.Clone(bars), nil
}

// Run selects path, probes it and renders the result.
func (s *Session) Run(ctx context.Context, p Prober, path string, width float64) ([]bitrate.Bar, error) {
	s.Select(ctx, path)
	if err := s.Probe(ctx, p); err != nil {
		return nil, err
	}
	return s.Render(width)
}

// Result is delivered by Start.
type Result struct {
	Path string
	Bars []bitrate.Bar
	Err  error
}

// Start runs Run on a new goroutine and delivers exactly one Result on the
// returned channel, which is then closed.
func (s *Session) Start(ctx context.Context, p Prober, path string, width float64) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		bars, err := s.Run(ctx, p, path, width)
		out <- Result{Path: path, Bars: bars, Err: err}
	}()
	return out
}
