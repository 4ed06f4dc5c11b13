// Package plot renders bitrate bars to PNG or SVG images with go-chart.
package plot
