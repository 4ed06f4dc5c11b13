package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"bitgraph/internal/bitrate"
	"bitgraph/internal/logging"
	"bitgraph/internal/media/ffprobe"
)

type probeReport struct {
	File     string           `json:"file"`
	Format   *ffprobe.Format  `json:"format,omitempty"`
	Streams  []ffprobe.Stream `json:"streams"`
	Packets  map[string]int   `json:"packets_per_stream"`
	Selector string           `json:"selector,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var selector string

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "Show container, stream and packet information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ctx.begin(cmd, "probe")
			if err != nil {
				return err
			}
			defer inv.cancel()

			prober, err := ctx.prober(cmd, inv.logger)
			if err != nil {
				return err
			}
			path, err := mediaPath(args[0])
			if err != nil {
				return err
			}
			if selector == "" {
				selector = inv.cfg.FFprobe.SelectStreams
			}
			session := inv.session(selector)
			session.Select(inv.ctx, path)
			if err := session.Probe(inv.ctx, prober); err != nil {
				return err
			}
			data := session.Status().Data

			report := probeReport{
				File:     path,
				Format:   data.Format,
				Streams:  data.Streams,
				Packets:  packetsPerStream(*data),
				Selector: selector,
			}
			if report.Streams == nil {
				report.Streams = []ffprobe.Stream{}
			}
			inv.logger.Debug("probe report ready", logging.Int("stream_count", len(report.Streams)))

			if asJSON {
				return writeJSON(cmd, report)
			}
			printProbeReport(cmd, report, *data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&selector, "select-streams", "", "ffprobe stream specifier (overrides ffprobe.select_streams)")
	return cmd
}

func packetsPerStream(data ffprobe.ProbeData) map[string]int {
	counts := make(map[string]int)
	for _, pkt := range data.Packets {
		counts[strconv.FormatUint(pkt.StreamIndex, 10)]++
	}
	return counts
}

func printProbeReport(cmd *cobra.Command, report probeReport, data ffprobe.ProbeData) {
	out := cmd.OutOrStdout()

	pairs := [][2]string{{"File", report.File}}
	if f := report.Format; f != nil {
		pairs = append(pairs,
			[2]string{"Container", fmt.Sprintf("%s (%s)", f.FormatLongName, f.FormatName)},
			[2]string{"Duration", formatDuration(f.Duration)},
			[2]string{"Size", formatBytes(f.Size)},
			[2]string{"Bit rate", formatBitRate(f.BitRate)},
		)
	} else {
		pairs = append(pairs, [2]string{"Container", "not reported"})
	}
	pairs = append(pairs, [2]string{"Packets", formatCount(len(data.Packets))})
	fmt.Fprintln(out, renderKeyValues(pairs))

	indexes := make([]uint64, 0, len(report.Streams))
	for _, s := range report.Streams {
		indexes = append(indexes, s.Index)
	}
	for _, pkt := range data.Packets {
		if !slices.Contains(indexes, pkt.StreamIndex) {
			indexes = append(indexes, pkt.StreamIndex)
		}
	}
	slices.Sort(indexes)
	if len(indexes) == 0 {
		return
	}

	rows := make([][]string, 0, len(indexes))
	for _, idx := range indexes {
		stream, _ := data.StreamByIndex(idx)
		graphed := ""
		if idx == bitrate.TargetStream {
			graphed = yesNo(true)
		}
		rows = append(rows, []string{
			strconv.FormatUint(idx, 10),
			orDash(stream.CodecType),
			orDash(stream.CodecName),
			formatCount(data.PacketCount(idx)),
			graphed,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]column{
		numCol("Stream"), textCol("Type"), textCol("Codec"), numCol("Packets"), textCol("Graphed"),
	}, rows))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
