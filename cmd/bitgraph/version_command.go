package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"bitgraph/internal/services"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show bitgraph and ffprobe versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ctx.begin(cmd, "version")
			if err != nil {
				return err
			}
			defer inv.cancel()

			info := struct {
				Bitgraph string `json:"bitgraph"`
				Go       string `json:"go"`
				FFprobe  string `json:"ffprobe,omitempty"`
				Path     string `json:"ffprobe_path,omitempty"`
				Error    string `json:"ffprobe_error,omitempty"`
			}{Bitgraph: version, Go: runtime.Version()}

			prober, err := ctx.prober(cmd, inv.logger)
			if err == nil {
				info.Path = prober.Binary()
				pv, verr := prober.FetchVersion(inv.ctx)
				if verr != nil {
					err = verr
				} else {
					info.FFprobe = pv.Version
				}
			}
			if err != nil {
				info.Error = services.Describe(err)
			}

			if asJSON {
				return writeJSON(cmd, info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bitgraph %s (%s)\n", info.Bitgraph, info.Go)
			if info.Error != "" {
				fmt.Fprintf(out, "ffprobe: %s\n", info.Error)
				return nil
			}
			fmt.Fprintf(out, "ffprobe %s (%s)\n", info.FFprobe, info.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
