package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediashelf/internal/config"
	"mediashelf/internal/hashcache"
	"mediashelf/internal/hashing"
	"mediashelf/internal/logging"
	"mediashelf/internal/metadata"
	"mediashelf/internal/organizer"
	"mediashelf/internal/preflight"
	"mediashelf/internal/runlock"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var inbox bool

	cmd := &cobra.Command{
		Use:   "organize <library-root>",
		Short: "File media under <library-root> into YYYY-MM/YYYY-MM-DD folders",
		Long: "Hash every media file, quarantine byte-for-byte duplicates into the duplicates folder, " +
			"and move the rest to root/YYYY-MM/YYYY-MM-DD/[geo/]{jpeg|raw|video}. " +
			"With --inbox only the inbox drop folder is processed.",
		Args: withUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve library root: %w", err)
			}
			if err := preflight.CheckRoot("library root", root, preflight.ReadWrite); err != nil {
				return err
			}

			lock, err := runlock.Acquire(root)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			logger, err := ctx.newLogger(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			runCtx, cancel := runContext(cmd)
			defer cancel()
			logger = logging.WithContext(runCtx, logger)

			mode := organizer.ModeLibrary
			if inbox {
				mode = organizer.ModeInbox
			}

			fs := afero.NewOsFs()
			hasher, closeHasher := newHasher(runCtx, cfg, fs, logger)
			defer closeHasher()

			org := organizer.New(fs, hasher, metadata.NewExifResolver(fs, time.Local), organizer.OptionsFromConfig(cfg, mode), logger)
			start := time.Now()
			summary, err := org.Run(runCtx, root)
			logger.Info("organize finished",
				logging.String("root", root),
				logging.Int("moved", summary.Moved),
				logging.Int("duplicates", summary.Duplicates),
				logging.Duration("elapsed", time.Since(start)),
			)
			printOrganizeSummary(cmd.OutOrStdout(), root, summary)
			if cached, ok := hasher.(*hashcache.CachedHasher); ok {
				hits, misses := cached.Counts()
				logger.Debug("hash cache usage", logging.Int("hits", hits), logging.Int("misses", misses))
			}
			return rerunNote(cmd, err)
		},
	}

	cmd.Flags().BoolVar(&inbox, "inbox", false, "Only organize files dropped into the inbox folder")
	return cmd
}

// newHasher returns the content hasher for a run, backed by the persisted
// cache when enabled. A cache that cannot be opened is skipped with a warning.
func newHasher(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *slog.Logger) (hashing.Hasher, func()) {
	plain := hashing.NewSHA256(fs)
	if !cfg.Organize.HashCache {
		return plain, func() {}
	}
	store, err := hashcache.Open(ctx, cfg.Paths.HashCachePath)
	if err != nil {
		logging.WarnWithContext(logger, "hash cache unavailable; hashing every file", "hash_cache_unavailable",
			logging.String("path", cfg.Paths.HashCachePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `mediashelf cache clear` or delete the database file"),
			logging.String(logging.FieldImpact, "organize reads every file in full"),
		)
		return plain, func() {}
	}
	return hashcache.NewCachedHasher(store, plain, fs, logger), func() { _ = store.Close() }
}

func printOrganizeSummary(out io.Writer, root string, summary organizer.Summary) {
	if !summary.Changed() {
		fmt.Fprintf(out, "Nothing to organize under %s (%d files already in place).\n", root, summary.Unchanged)
		return
	}

	rows := [][]string{
		{"Files scanned", strconv.Itoa(summary.Scanned)},
		{"Moved", strconv.Itoa(summary.Moved)},
		{"Duplicates quarantined", strconv.Itoa(summary.Duplicates)},
		{"Already in place", strconv.Itoa(summary.Unchanged)},
		{"Skipped (not media, links)", strconv.Itoa(summary.Skipped)},
		{"Empty legacy folders removed", strconv.Itoa(summary.RemovedLegacyDirs)},
	}
	if summary.Mode == organizer.ModeInbox {
		rows = append(rows, []string{"Library files indexed", strconv.Itoa(summary.Indexed)})
	}
	fmt.Fprintln(out, renderTable([]string{"Organize", "Count"}, rows, nil, []columnAlignment{alignLeft, alignRight}))

	if len(summary.Duplicated) == 0 {
		return
	}
	dupRows := make([][]string, 0, len(summary.Duplicated))
	for _, dup := range summary.Duplicated {
		dupRows = append(dupRows, []string{relTo(root, dup.Path), relTo(root, dup.Quarantined), relTo(root, dup.Original)})
	}
	fmt.Fprintln(out, renderTable([]string{"Duplicate", "Quarantined as", "Same content as"}, dupRows, nil, nil))
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
