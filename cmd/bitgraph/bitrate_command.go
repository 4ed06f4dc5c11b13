package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitgraph/internal/bitrate"
	"bitgraph/internal/logging"
	"bitgraph/internal/services"
)

type bitrateReport struct {
	File          string          `json:"file"`
	BucketSeconds float64         `json:"bucket_seconds"`
	Stream        uint64          `json:"stream"`
	Stats         bitrate.Stats   `json:"stats"`
	Summary       bitrate.Summary `json:"summary"`
	Bars          []bitrate.Bar   `json:"bars"`
}

func newBitrateCommand(ctx *commandContext) *cobra.Command {
	var width float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bitrate FILE",
		Short: "Print the per-bucket bitrate of stream 0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBitrate(cmd, ctx, args[0], width, asJSON)
		},
	}

	cmd.Flags().Float64VarP(&width, "width", "w", 0, "Bucket width in seconds (default bitrate.bucket_seconds)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func runBitrate(cmd *cobra.Command, ctx *commandContext, path string, width float64, asJSON bool) error {
	inv, err := ctx.begin(cmd, "bitrate")
	if err != nil {
		return err
	}
	defer inv.cancel()

	report, err := analyse(cmd, ctx, inv, path, width)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, report)
	}
	printBitrateReport(cmd, report)
	return nil
}

// analyse runs the select, probe and render sequence for path and builds the
// report shared by the bitrate, plot and recent open commands.
func analyse(cmd *cobra.Command, ctx *commandContext, inv *invocation, arg string, width float64) (bitrateReport, error) {
	path, err := mediaPath(arg)
	if err != nil {
		return bitrateReport{}, err
	}
	if width == 0 {
		width = inv.cfg.Bitrate.BucketSeconds
	}
	if width <= 0 {
		return bitrateReport{}, services.Wrap(services.ErrInvalidInput, "bitrate", "flags", fmt.Sprintf("bucket width must be positive, got %v", width), nil)
	}
	prober, err := ctx.prober(cmd, inv.logger)
	if err != nil {
		return bitrateReport{}, err
	}

	// Only stream 0 is graphed, so the configured selector is not applied.
	session := inv.session("")
	result := <-session.Start(inv.ctx, prober, path, width)
	if result.Err != nil {
		return bitrateReport{}, result.Err
	}

	status := session.Status()
	report := bitrateReport{
		File:          path,
		BucketSeconds: width,
		Stream:        bitrate.TargetStream,
		Stats:         status.Stats,
		Summary:       bitrate.Summarize(result.Bars),
		Bars:          result.Bars,
	}
	if report.Bars == nil {
		report.Bars = []bitrate.Bar{}
	}
	inv.logger.Info("bitrate computed",
		logging.MediaPath(path),
		logging.Int("bucket_count", report.Summary.Buckets),
		logging.Float64("peak_kib_s", report.Summary.Peak),
		logging.Int("packet_count", report.Stats.Packets))
	return report, nil
}

func printBitrateReport(cmd *cobra.Command, report bitrateReport) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(report.Bars))
	for _, bar := range report.Bars {
		rows = append(rows, []string{
			formatSeconds(bar.Center - bar.Width/2),
			formatSeconds(bar.Center + bar.Width/2),
			formatRate(bar.Value),
		})
	}
	fmt.Fprintln(out, renderTable([]column{numCol("Start (s)"), numCol("End (s)"), numCol("KiB/s")}, rows))

	summary := report.Summary
	fmt.Fprintf(out, "%s: %s buckets of %ss, peak %s KiB/s at %ss, mean %s KiB/s\n",
		displayName(report.File),
		formatCount(summary.Buckets),
		formatSeconds(report.BucketSeconds),
		formatRate(summary.Peak),
		formatSeconds(summary.PeakAt),
		formatRate(summary.Mean),
	)
	fmt.Fprintf(out, "Stream %d: %s packets, %s\n",
		report.Stream, formatCount(report.Stats.Packets), formatBytes(report.Stats.Bytes))
	if report.Stats.Clamped > 0 {
		fmt.Fprintf(out, "%s packets fell outside the container duration and were folded into the edge buckets\n",
			formatCount(report.Stats.Clamped))
	}
}
