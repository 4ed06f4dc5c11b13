package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bitgraph/internal/history"
	"bitgraph/internal/services"
)

var errHistoryDisabled = errors.New("recent files are disabled (set history.enabled = true)")

func newRecentCommand(ctx *commandContext) *cobra.Command {
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Recently opened files",
	}

	recentCmd.AddCommand(newRecentListCommand(ctx))
	recentCmd.AddCommand(newRecentOpenCommand(ctx))
	recentCmd.AddCommand(newRecentClearCommand(ctx))

	return recentCmd
}

func newRecentListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently opened files, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ctx.begin(cmd, "recent list")
			if err != nil {
				return err
			}
			defer inv.cancel()

			entries, err := loadRecents(inv)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent files")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, path := range entries {
				_, statErr := os.Stat(path)
				rows = append(rows, []string{strconv.Itoa(i + 1), homeRelative(path), yesNo(statErr == nil)})
			}
			fmt.Fprintln(out, renderTable([]column{numCol("#"), textCol("Path"), textCol("Exists")}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newRecentOpenCommand(ctx *commandContext) *cobra.Command {
	var width float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "open N",
		Short: "Print the bitrate of the Nth recent file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || n < 1 {
				return services.Wrap(services.ErrInvalidInput, "recent", "open", fmt.Sprintf("invalid entry number %q", args[0]), nil)
			}

			inv, err := ctx.begin(cmd, "recent open")
			if err != nil {
				return err
			}
			entries, err := loadRecents(inv)
			inv.cancel()
			if err != nil {
				return err
			}
			if n > len(entries) {
				return services.Wrap(services.ErrInvalidInput, "recent", "open",
					fmt.Sprintf("entry %d out of range (only %d recent files)", n, len(entries)), nil)
			}
			return runBitrate(cmd, ctx, entries[n-1], width, asJSON)
		},
	}

	cmd.Flags().Float64VarP(&width, "width", "w", 0, "Bucket width in seconds (default bitrate.bucket_seconds)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newRecentClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all recently opened files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ctx.begin(cmd, "recent clear")
			if err != nil {
				return err
			}
			defer inv.cancel()

			store := inv.recents()
			if store.Path() == "" {
				return errHistoryDisabled
			}
			if _, err := store.Update(inv.ctx, func(h *history.History[string]) { h.Clear() }); err != nil {
				return fmt.Errorf("clear recent files: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recent files cleared")
			return nil
		},
	}
}

func loadRecents(inv *invocation) ([]string, error) {
	store := inv.recents()
	if store.Path() == "" {
		return nil, errHistoryDisabled
	}
	h, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load recent files: %w", err)
	}
	return h.Snapshot(), nil
}
