package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bitgraph/internal/config"
	"bitgraph/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				switch _, err := os.Stat(target); {
				case err == nil:
					return services.Wrap(services.ErrPrecondition, "config", "init", target+" already exists (use --overwrite to replace it)", nil)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "ffprobe is discovered automatically; set ffprobe.path or %s to pin a binary.\n", config.EnvFFprobe)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget expands an explicit --path or falls back to the per-user config
// location.
func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderKeyValues([][2]string{
				{"ffprobe.path", orDash(cfg.FFprobe.Path)},
				{"ffprobe.timeout_seconds", formatCount(cfg.FFprobe.TimeoutSeconds)},
				{"bitrate.bucket_seconds", formatSeconds(cfg.Bitrate.BucketSeconds)},
				{"history.enabled", yesNo(cfg.History.Enabled)},
				{"history.path", orDash(cfg.HistoryPath())},
				{"plot", fmt.Sprintf("%dx%d %s", cfg.Plot.Width, cfg.Plot.Height, cfg.Plot.Format)},
				{"logging", fmt.Sprintf("%s/%s", cfg.Logging.Format, cfg.Logging.Level)},
			}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
