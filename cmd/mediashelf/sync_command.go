package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediashelf/internal/archive"
	"mediashelf/internal/logging"
	"mediashelf/internal/preflight"
	"mediashelf/internal/runlock"
)

const progressThrottle = 100 * time.Millisecond

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "sync <source-root> <destination-root>",
		Short: "Copy month folders missing from the archive",
		Long: "Mirror every YYYY-MM folder of <source-root> onto <destination-root>. " +
			"New months are copied wholesale; existing months only receive the files they lack. " +
			"Nothing on the destination is ever deleted or overwritten.",
		Args: withUsage(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source root: %w", err)
			}
			dst, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve destination root: %w", err)
			}
			if err := preflight.CheckRoot("source root", src, preflight.ReadOnly); err != nil {
				return err
			}
			if err := preflight.CheckRoot("destination root", dst, preflight.ReadWrite); err != nil {
				return err
			}
			if src == dst {
				return fmt.Errorf("source and destination are the same directory: %s", src)
			}

			lock, err := runlock.Acquire(dst)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			showBar := cfg.Sync.Progress && !noProgress && isTerminal(cmd.ErrOrStderr())
			logger, err := ctx.newLogger(cmd.ErrOrStderr(), showBar)
			if err != nil {
				return err
			}
			runCtx, cancel := runContext(cmd)
			defer cancel()

			fs := afero.NewOsFs()
			copier := archive.NewCopier(fs, cfg.Sync.PreserveAttributes, logger)
			var opts []archive.Option
			if showBar {
				opts = append(opts, archive.WithProgress(newBarProgress(cmd.ErrOrStderr())))
			}

			start := time.Now()
			summary, err := archive.New(fs, copier, logger, opts...).Run(runCtx, src, dst)
			logging.WithContext(runCtx, logger).Info("sync finished",
				logging.Int("copied", summary.Copied),
				logging.Int("skipped", summary.Skipped),
				logging.Duration("elapsed", time.Since(start)),
			)
			if fallback, ok := copier.(*archive.FallbackCopier); ok && fallback.Fallbacks() > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d files were copied without their original attributes (see warnings).\n", fallback.Fallbacks())
			}
			printSyncSummary(cmd.OutOrStdout(), src, summary)
			return rerunNote(cmd, err)
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Log every copied file instead of drawing a progress bar")
	return cmd
}

func printSyncSummary(out io.Writer, src string, summary archive.Summary) {
	if len(summary.Units) == 0 {
		fmt.Fprintf(out, "Nothing to sync: no YYYY-MM folders under %s.\n", src)
		return
	}

	rows := make([][]string, 0, len(summary.Units))
	for _, unit := range summary.Units {
		rows = append(rows, []string{
			unit.Name,
			string(unit.Mode),
			strconv.Itoa(unit.Copied),
			strconv.Itoa(unit.Skipped),
			humanize.Bytes(uint64(unit.Bytes)),
		})
	}
	footer := []string{
		"Total",
		"",
		strconv.Itoa(summary.Copied),
		strconv.Itoa(summary.Skipped),
		humanize.Bytes(uint64(summary.Bytes)),
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Month", "Mode", "Copied", "Already on archive", "Size"},
		rows,
		footer,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Total files copied: %d\n", summary.Copied)
	fmt.Fprintf(out, "Total files already on archive: %d\n", summary.Skipped)
	if summary.Ignored > 0 {
		fmt.Fprintf(out, "Entries not copied (dangling links or special files, see warnings): %d\n", summary.Ignored)
	}
}
