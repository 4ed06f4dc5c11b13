package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount[T ~int | ~int64 | ~uint64](n T) string {
	return numbers.Sprintf("%d", n)
}

// formatRate renders a KiB/s value with one decimal and grouping.
func formatRate(kibPerSecond float64) string {
	return numbers.Sprintf("%.1f", kibPerSecond)
}

func formatSeconds(seconds float64) string {
	return numbers.Sprintf("%.3f", seconds)
}

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}

func formatBitRate(bitsPerSecond uint64) string {
	return humanize.SIWithDigits(float64(bitsPerSecond), 1, "b/s")
}

func formatDuration(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	d := time.Duration(math.Round(*seconds*1000)) * time.Millisecond
	return fmt.Sprintf("%s (%ss)", d, formatSeconds(*seconds))
}

// homeRelative abbreviates the home directory prefix of path to ~.
func homeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	home = filepath.Clean(home)
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}

func displayName(path string) string {
	if base := filepath.Base(path); base != "." && base != string(filepath.Separator) {
		return base
	}
	return path
}
