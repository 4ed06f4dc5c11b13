package plot

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bitgraph/internal/bitrate"
	"bitgraph/internal/fileutil"
	"bitgraph/internal/services"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

const minDimension = 64

// Options controls the rendered graph.
type Options struct {
	Title  string
	Width  int
	Height int
	Format string
}

var barColor = drawing.ColorFromHex("2f6db5")

var barStyle = chart.Style{
	StrokeColor: barColor,
	StrokeWidth: 1,
	FillColor:   barColor.WithAlpha(96),
}

// Render draws bars as a bitrate graph and writes the image to w. Each bar
// spans its own width around its center, so gaps and uneven widths show as
// they are.
func Render(w io.Writer, bars []bitrate.Bar, opts Options) error {
	if len(bars) == 0 {
		return services.Wrap(services.ErrPrecondition, "plot", "render", "no bitrate samples to draw", nil)
	}
	provider, err := rendererFor(opts.Format)
	if err != nil {
		return err
	}

	xs, ys := stepSeries(bars)
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      max(opts.Width, minDimension),
		Height:     max(opts.Height, minDimension),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Time (s)",
			Range:          &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			ValueFormatter: tickLabel,
		},
		YAxis: chart.YAxis{
			Name:           "Bitrate (KiB/s)",
			Range:          &chart.ContinuousRange{Min: 0, Max: yCeiling(bars)},
			ValueFormatter: tickLabel,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Stream 0",
				XValues: xs,
				YValues: ys,
				Style:   barStyle,
			},
		},
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", formatName(opts.Format), err)
	}
	return nil
}

// RenderFile renders to path, inferring the format from its extension when
// opts.Format is empty. A failed render never leaves a partial image behind.
func RenderFile(path string, bars []bitrate.Bar, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatFromPath(path, FormatPNG)
	}
	if _, err := rendererFor(opts.Format); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Render(w, bars, opts)
	})
}

// FormatFromPath returns the format implied by the file extension, or
// fallback when the extension is not a supported format.
func FormatFromPath(path, fallback string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case FormatPNG:
		return FormatPNG
	case FormatSVG:
		return FormatSVG
	default:
		return fallback
	}
}

func rendererFor(format string) (chart.RendererProvider, error) {
	switch formatName(format) {
	case FormatPNG:
		return chart.PNG, nil
	case FormatSVG:
		return chart.SVG, nil
	default:
		return nil, services.Wrap(services.ErrInvalidInput, "plot", "render", fmt.Sprintf("unsupported image format %q", format), nil)
	}
}

func formatName(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return FormatPNG
	}
	return format
}

// stepSeries traces the outline of the bars, starting and ending on the
// x axis so the filled area matches the bars exactly.
func stepSeries(bars []bitrate.Bar) ([]float64, []float64) {
	xs := make([]float64, 0, 2*len(bars)+2)
	ys := make([]float64, 0, 2*len(bars)+2)

	first := bars[0]
	xs = append(xs, first.Center-first.Width/2)
	ys = append(ys, 0)
	for _, bar := range bars {
		left, right := bar.Center-bar.Width/2, bar.Center+bar.Width/2
		xs = append(xs, left, right)
		ys = append(ys, bar.Value, bar.Value)
	}
	last := bars[len(bars)-1]
	xs = append(xs, last.Center+last.Width/2)
	ys = append(ys, 0)
	return xs, ys
}

func yCeiling(bars []bitrate.Bar) float64 {
	peak := bitrate.Summarize(bars).Peak
	if peak <= 0 {
		return 1
	}
	return peak * 1.1
}

func tickLabel(v any) string {
	if f, ok := v.(float64); ok {
		return humanize.FtoaWithDigits(f, 1)
	}
	return ""
}
