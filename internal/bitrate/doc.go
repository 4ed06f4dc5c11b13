// Package bitrate turns ffprobe packet records into a time-bucketed rate
// series suitable for charting.
package bitrate
