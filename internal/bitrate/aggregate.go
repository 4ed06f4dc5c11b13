package bitrate

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"bitgraph/internal/media/ffprobe"
	"bitgraph/internal/services"
)

// TargetStream is the only stream aggregated. Multi-stream selection is left
// to ffprobe's -select_streams.
const TargetStream uint64 = 0

// MaxBuckets bounds the number of bars a single aggregation may allocate.
const MaxBuckets = 1 << 24

// Bar is one aggregation bucket. Value is the average rate over the bucket in
// KiB/s; Center and Width are in seconds.
type Bar struct {
	Center float64 `json:"center"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`
}

// Stats describes the packets that went into an aggregation.
type Stats struct {
	Packets int    `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	// Clamped counts packets whose timestamp fell outside [0, duration) and
	// were folded into the first or last bucket.
	Clamped int `json:"clamped"`
}

// Aggregate buckets the target stream's packets into fixed-width windows and
// returns one bar per window in time order.
func Aggregate(data ffprobe.ProbeData, width float64) ([]Bar, error) {
	bars, _, err := AggregateWithStats(data, width)
	return bars, err
}

// AggregateWithStats is Aggregate plus a description of the input packets.
//
// Packets are processed in ascending pts order so the result does not depend
// on the order ffprobe emitted them. A packet whose pts_time maps outside the
// allocated range is clamped into the nearest bucket rather than dropped, so
// total bytes are always conserved.
func AggregateWithStats(data ffprobe.ProbeData, width float64) ([]Bar, Stats, error) {
	if data.Packets == nil {
		return nil, Stats{}, precondition("probe data has no packets section")
	}
	duration, ok := data.DurationSeconds()
	if !ok {
		return nil, Stats{}, precondition("probe data has no duration")
	}
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		return nil, Stats{}, precondition(fmt.Sprintf("bucket width must be a positive number of seconds, got %v", width))
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return nil, Stats{}, precondition(fmt.Sprintf("duration must be a non-negative number of seconds, got %v", duration))
	}

	buckets := math.Ceil(duration / width)
	if math.IsInf(buckets, 0) || buckets > MaxBuckets {
		return nil, Stats{}, precondition(fmt.Sprintf("duration %v at width %v needs more than %d buckets", duration, width, MaxBuckets))
	}

	packets := make([]ffprobe.Packet, 0, len(data.Packets))
	for i, pkt := range data.Packets {
		if pkt.StreamIndex != TargetStream {
			continue
		}
		if math.IsNaN(pkt.PTSTime) || math.IsInf(pkt.PTSTime, 0) {
			return nil, Stats{}, precondition(fmt.Sprintf("packet %d has non-finite pts_time %v", i, pkt.PTSTime))
		}
		packets = append(packets, pkt)
	}
	slices.SortStableFunc(packets, func(a, b ffprobe.Packet) int {
		return cmp.Compare(a.PTS, b.PTS)
	})

	count := int(buckets)
	if count == 0 && len(packets) > 0 {
		return nil, Stats{}, precondition(fmt.Sprintf("%d packets but zero duration", len(packets)))
	}

	stats := Stats{Packets: len(packets)}
	rates := make([]float64, count)
	for _, pkt := range packets {
		idx, clamped := bucketIndex(pkt.PTSTime, width, count)
		if clamped {
			stats.Clamped++
		}
		rates[idx] += float64(pkt.Size) / width / 1024
		stats.Bytes += uint64(pkt.Size)
	}

	bars := make([]Bar, count)
	for i, rate := range rates {
		bars[i] = Bar{
			Center: float64(i)*width + width/2,
			Value:  rate,
			Width:  width,
		}
	}
	return bars, stats, nil
}

func bucketIndex(ptsTime, width float64, count int) (int, bool) {
	raw := math.Floor(ptsTime / width)
	switch {
	case raw < 0:
		return 0, true
	case raw >= float64(count):
		return count - 1, true
	default:
		return int(raw), false
	}
}

func precondition(message string) error {
	return services.Wrap(services.ErrPrecondition, "bitrate", "aggregate", message, nil)
}
