package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediashelf/internal/logging"
	"mediashelf/internal/logs"
)

const followPoll = 500 * time.Millisecond

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the run log written when logging.file is enabled",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Logging.File {
				fmt.Fprintln(out, "File logging is disabled (logging.file = false)")
				return nil
			}

			reader := logs.NewReader(afero.NewOsFs(), logging.FilePath(cfg))
			filter := logs.MatchRunID(runID)
			tail, offset, err := reader.Last(lines, filter)
			if err != nil {
				return err
			}
			if len(tail) == 0 && !follow {
				fmt.Fprintf(out, "No log entries in %s\n", reader.Path())
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			runCtx, cancel := runContext(cmd)
			defer cancel()
			err = reader.Follow(runCtx, offset, followPoll, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines from one organize or sync run")
	return cmd
}
