package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitgraph/internal/preflight"
	"bitgraph/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ffprobe and writable paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ctx.begin(cmd, "check")
			if err != nil {
				return err
			}
			defer inv.cancel()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(inv.ctx, inv.cfg, ctx.locator)
			for _, result := range results {
				fmt.Fprintln(out, renderCheck(result, colorize))
			}
			if preflight.Failed(results) {
				return services.Wrap(services.ErrPrecondition, "cli", "check", "one or more checks failed", nil)
			}
			return nil
		},
	}
}
