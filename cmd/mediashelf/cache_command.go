package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediashelf/internal/hashcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the content hash cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show hash cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(cmd, ctx, false, func(store *hashcache.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Database", stats.Path},
					{"Entries", humanize.Comma(stats.Entries)},
				}
				if info, err := os.Stat(stats.Path); err == nil {
					rows = append(rows, []string{"Size", humanize.Bytes(uint64(info.Size()))})
				}
				if !stats.Oldest.IsZero() {
					rows = append(rows,
						[]string{"Oldest entry", humanize.Time(stats.Oldest)},
						[]string{"Newest entry", humanize.Time(stats.Newest)},
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Hash cache", ""}, rows, nil, nil))
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop cache entries for files that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(cmd, ctx, false, func(store *hashcache.Store) error {
				removed, err := store.Prune(cmd.Context(), func(path string) bool {
					_, err := os.Stat(path)
					return !errors.Is(err, os.ErrNotExist)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(cmd, ctx, true, func(store *hashcache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", removed)
				return nil
			})
		},
	}
}

// withCacheStore opens the configured cache for fn. With reset, a database
// from an older schema is deleted and recreated instead of failing.
func withCacheStore(cmd *cobra.Command, ctx *commandContext, reset bool, fn func(*hashcache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Organize.HashCache {
		fmt.Fprintln(cmd.OutOrStdout(), "Hash cache is disabled (organize.hash_cache = false)")
		return nil
	}
	if strings.TrimSpace(cfg.Paths.HashCachePath) == "" {
		return errors.New("paths.hash_cache_path is not set")
	}
	store, err := hashcache.Open(cmd.Context(), cfg.Paths.HashCachePath)
	if errors.Is(err, hashcache.ErrSchemaMismatch) && reset {
		if err := removeCacheFiles(cfg.Paths.HashCachePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed outdated cache database %s\n", cfg.Paths.HashCachePath)
		store, err = hashcache.Open(cmd.Context(), cfg.Paths.HashCachePath)
	}
	if err != nil {
		if errors.Is(err, hashcache.ErrSchemaMismatch) {
			return fmt.Errorf("%w; run `mediashelf cache clear` to start a fresh cache at %s", err, cfg.Paths.HashCachePath)
		}
		return err
	}
	defer store.Close()
	return fn(store)
}

func removeCacheFiles(path string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove outdated cache: %w", err)
		}
	}
	return nil
}
