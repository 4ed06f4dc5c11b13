package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bitgraph/internal/config"
	"bitgraph/internal/logging"
	"bitgraph/internal/plot"
	"bitgraph/internal/services"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	var output string
	var width float64
	var format string
	var imageWidth, imageHeight int

	cmd := &cobra.Command{
		Use:   "plot FILE",
		Short: "Render the bitrate graph of stream 0 to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(output)
			if target == "" {
				return services.Wrap(services.ErrInvalidInput, "plot", "flags", "--output is required", nil)
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			inv, err := ctx.begin(cmd, "plot")
			if err != nil {
				return err
			}
			defer inv.cancel()

			report, err := analyse(cmd, ctx, inv, args[0], width)
			if err != nil {
				return err
			}

			opts := plot.Options{
				Title:  displayName(report.File),
				Width:  inv.cfg.Plot.Width,
				Height: inv.cfg.Plot.Height,
				Format: strings.ToLower(strings.TrimSpace(format)),
			}
			if imageWidth > 0 {
				opts.Width = imageWidth
			}
			if imageHeight > 0 {
				opts.Height = imageHeight
			}
			if opts.Format == "" {
				opts.Format = plot.FormatFromPath(expanded, inv.cfg.Plot.Format)
			}
			if err := plot.RenderFile(expanded, report.Bars, opts); err != nil {
				return err
			}

			inv.logger.Info("graph written",
				logging.MediaPath(report.File),
				logging.String("output", expanded),
				logging.String("format", opts.Format))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s graph of %s to %s\n", strings.ToUpper(opts.Format), displayName(report.File), expanded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Image file to write")
	cmd.Flags().Float64VarP(&width, "width", "w", 0, "Bucket width in seconds (default bitrate.bucket_seconds)")
	cmd.Flags().StringVar(&format, "format", "", "Image format: png or svg (default from extension, then plot.format)")
	cmd.Flags().IntVar(&imageWidth, "image-width", 0, "Image width in pixels (default plot.width)")
	cmd.Flags().IntVar(&imageHeight, "image-height", 0, "Image height in pixels (default plot.height)")
	return cmd
}
