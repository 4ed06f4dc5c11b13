package bitrate

// Summary condenses a bar series for display.
type Summary struct {
	Buckets int     `json:"buckets"`
	Peak    float64 `json:"peak_kib_s"`
	PeakAt  float64 `json:"peak_at"`
	Mean    float64 `json:"mean_kib_s"`
}

// Summarize returns the peak and mean rate of bars. The mean is time
// weighted, so it equals total KiB over total covered seconds.
func Summarize(bars []Bar) Summary {
	summary := Summary{Buckets: len(bars)}
	if len(bars) == 0 {
		return summary
	}
	var weighted, span float64
	for i, bar := range bars {
		if i == 0 || bar.Value > summary.Peak {
			summary.Peak = bar.Value
			summary.PeakAt = bar.Center
		}
		weighted += bar.Value * bar.Width
		span += bar.Width
	}
	if span > 0 {
		summary.Mean = weighted / span
	}
	return summary
}
