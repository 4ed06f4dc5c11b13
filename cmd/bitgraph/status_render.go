package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"bitgraph/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"

	checkLabelWidth = 20
)

// renderCheck formats one preflight result as "  Name:  [OK] detail",
// green or red when colorize is set.
func renderCheck(result preflight.Result, colorize bool) string {
	verdict, color := "ERROR", ansiRed
	if result.Passed {
		verdict, color = "OK", ansiGreen
	}
	line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, result.Name+":", verdict)
	if result.Detail != "" {
		line += " " + result.Detail
	}
	if !colorize {
		return line
	}
	return color + line + ansiReset
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
