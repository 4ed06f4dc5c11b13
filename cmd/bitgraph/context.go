package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bitgraph/internal/analysis"
	"bitgraph/internal/config"
	"bitgraph/internal/deps"
	"bitgraph/internal/history"
	"bitgraph/internal/logging"
	"bitgraph/internal/media/ffprobe"
	"bitgraph/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	locator *deps.Locator
	ffprobe *deps.Resolved
}

func newCommandContext(configFlag *string) *commandContext {
	locator := deps.NewLocator()
	return &commandContext{
		configFlag: configFlag,
		locator:    locator,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.ffprobe = deps.NewResolved(c.locator, ffprobeName(cfg))
	})
	return c.config, c.configErr
}

func ffprobeName(cfg *config.Config) string {
	if name := cfg.FFprobeBinary(); name != "" {
		return name
	}
	return deps.FFprobeName
}

// invocation is the per-command state: a context carrying a fresh
// correlation id, and a logger writing to the command's stderr.
type invocation struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	cfg    *config.Config
}

func (c *commandContext) begin(cmd *cobra.Command, name string) (*invocation, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.ConfigOptions(cfg)
	opts.Writer = cmd.ErrOrStderr()
	base, err := logging.New(opts)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logging", "init", "create logger", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx := services.WithRequestID(parent, uuid.NewString())
	var cancel context.CancelFunc = func() {}
	if timeout := cfg.ProbeTimeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "cli")).With(logging.String("command", name))
	return &invocation{ctx: ctx, cancel: cancel, logger: logger, cfg: cfg}, nil
}

func (c *commandContext) prober(cmd *cobra.Command, logger *slog.Logger) (*ffprobe.Prober, error) {
	if _, err := c.ensureConfig(); err != nil {
		return nil, err
	}
	path, err := c.ffprobe.Path()
	if err != nil {
		return nil, err
	}
	return ffprobe.New(path,
		ffprobe.WithLogger(logger),
		ffprobe.WithStderr(cmd.ErrOrStderr()),
	), nil
}

func (inv *invocation) recents() *history.Store {
	return history.NewStore(inv.cfg.HistoryPath(), inv.cfg.History.Limit, inv.logger)
}

// session builds an analysis session. selector is passed to ffprobe as is;
// an empty selector probes every stream.
func (inv *invocation) session(selector string) *analysis.Session {
	return analysis.NewSession(
		analysis.WithRecorder(inv.recents()),
		analysis.WithSelector(selector),
		analysis.WithLogger(inv.logger),
	)
}

// mediaPath resolves a FILE argument to the absolute form stored in the
// recent list, so the same file is remembered once however it was typed.
func mediaPath(arg string) (string, error) {
	path, err := config.ExpandPath(arg)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "cli", "path", fmt.Sprintf("cannot resolve %q", arg), err)
	}
	return path, nil
}

// skipConfigLoad marks commands that must run even when the config file is
// broken or absent.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
