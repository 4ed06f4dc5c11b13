package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitgraph/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, services.Describe(err))
		}
		os.Exit(1)
	}
}
