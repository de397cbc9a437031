package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"mediashelf/internal/faults"
	"mediashelf/internal/fileutil"
	"mediashelf/internal/logging"
)

var errNotRegular = errors.New("not a regular file or directory")

// Mode records which path a unit took.
type Mode string

const (
	ModeWhole Mode = "whole"
	ModeDiff  Mode = "diff"
)

// UnitResult reports one synced month.
type UnitResult struct {
	Name    string
	Mode    Mode
	Copied  int
	Skipped int
	// Ignored counts dangling links and special files left behind.
	Ignored int
	Bytes   int64
}

// Summary reports a whole sync run.
type Summary struct {
	Units   []UnitResult
	Copied  int
	Skipped int
	Ignored int
	Bytes   int64
}

func (s *Summary) add(result UnitResult) {
	s.Units = append(s.Units, result)
	s.Copied += result.Copied
	s.Skipped += result.Skipped
	s.Ignored += result.Ignored
	s.Bytes += result.Bytes
}

// Progress observes a run. Calls arrive on the syncing goroutine.
type Progress interface {
	UnitStarted(unit Unit, files int)
	FileDone(path string, bytes int64, copied bool)
	UnitFinished(result UnitResult)
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithProgress attaches a progress observer.
func WithProgress(p Progress) Option {
	return func(s *Syncer) { s.progress = p }
}

// Syncer copies month folders from a source root to a destination root.
type Syncer struct {
	fs       afero.Fs
	copier   Copier
	progress Progress
	logger   *slog.Logger
}

// New constructs a Syncer. A nil copier preserves attributes with a plain
// fallback.
func New(fs afero.Fs, copier Copier, logger *slog.Logger, opts ...Option) *Syncer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger = logging.NewComponentLogger(logger, "archive")
	if copier == nil {
		copier = NewCopier(fs, true, logger)
	}
	s := &Syncer{fs: fs, copier: copier, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run syncs every unit under srcRoot into dstRoot. An empty unit list is not
// an error.
func (s *Syncer) Run(ctx context.Context, srcRoot, dstRoot string) (Summary, error) {
	var summary Summary
	logger := logging.WithContext(ctx, s.logger)

	units, err := Units(s.fs, srcRoot, dstRoot)
	if err != nil {
		return summary, faults.Wrap(faults.ErrIO, "archive", "list units", "Unable to list month folders", err)
	}
	logger.Info("archive sync starting",
		logging.String("source", srcRoot),
		logging.String("destination", dstRoot),
		logging.Int("units", len(units)),
	)

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		var result UnitResult
		if unit.Exists {
			result, err = s.syncDiff(ctx, unit, logger)
		} else {
			result, err = s.syncWhole(ctx, unit, logger)
		}
		if err != nil {
			return summary, err
		}
		summary.add(result)
		if s.progress != nil {
			s.progress.UnitFinished(result)
		}
		logger.Info("unit synced",
			logging.String("unit", result.Name),
			logging.String("mode", string(result.Mode)),
			logging.Int("copied", result.Copied),
			logging.Int("skipped", result.Skipped),
			logging.Int("ignored", result.Ignored),
			logging.Int64("bytes", result.Bytes),
			logging.String(logging.FieldEventType, "unit_synced"),
		)
	}
	return summary, nil
}

// syncWhole copies a month that is absent from the destination. The copied
// count comes from counting the destination afterwards.
func (s *Syncer) syncWhole(ctx context.Context, unit Unit, logger *slog.Logger) (UnitResult, error) {
	result := UnitResult{Name: unit.Name, Mode: ModeWhole}
	s.started(unit)
	logger.Info("copying new month", logging.String("unit", unit.Name), logging.String("destination", unit.Destination))

	err := walkFollow(s.fs, unit.Source, func(path string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := destinationFor(unit, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return s.fs.MkdirAll(target, dirMode(info))
		}
		if !info.Mode().IsRegular() {
			s.ignore(&result, path, errNotRegular, logger)
			return nil
		}
		n, err := s.copyFile(path, target, logger)
		if err != nil {
			return err
		}
		result.Bytes += n
		return nil
	}, func(path string, err error) {
		s.ignore(&result, path, err, logger)
	})
	if err != nil {
		return result, wrapWalkErr(unit, err)
	}

	copied, err := fileutil.CountFiles(s.fs, unit.Destination)
	if err != nil {
		return result, faults.Wrap(faults.ErrIO, "archive", "count copied", unit.Destination, err)
	}
	result.Copied = copied
	return result, nil
}

// syncDiff copies the files of a month that the destination lacks. Existing
// destination paths are skipped without comparing content.
func (s *Syncer) syncDiff(ctx context.Context, unit Unit, logger *slog.Logger) (UnitResult, error) {
	result := UnitResult{Name: unit.Name, Mode: ModeDiff}
	s.started(unit)

	err := walkFollow(s.fs, unit.Source, func(path string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			s.ignore(&result, path, errNotRegular, logger)
			return nil
		}
		target, err := destinationFor(unit, path)
		if err != nil {
			return err
		}
		if _, err := s.fs.Stat(target); err == nil {
			result.Skipped++
			if s.progress != nil {
				s.progress.FileDone(path, info.Size(), false)
			}
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		n, err := s.copyFile(path, target, logger)
		if err != nil {
			return err
		}
		result.Copied++
		result.Bytes += n
		return nil
	}, func(path string, err error) {
		s.ignore(&result, path, err, logger)
	})
	if err != nil {
		return result, wrapWalkErr(unit, err)
	}
	return result, nil
}

// ignore records a source entry that cannot be mirrored. It stays missing
// from the archive, so every run warns about it again.
func (s *Syncer) ignore(result *UnitResult, path string, err error, logger *slog.Logger) {
	result.Ignored++
	logging.WarnWithContext(logger, "source entry not copied", "source_entry_ignored",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "repair or remove the link, or replace the entry with a regular file"),
		logging.String(logging.FieldImpact, "this entry is missing from the archive"),
	)
}

func (s *Syncer) copyFile(src, dst string, logger *slog.Logger) (int64, error) {
	n, err := s.copier.Copy(src, dst)
	if err != nil {
		return 0, err
	}
	logger.Info("copied",
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Int64("bytes", n),
		logging.String(logging.FieldEventType, "file_copied"),
	)
	if s.progress != nil {
		s.progress.FileDone(src, n, true)
	}
	return n, nil
}

func (s *Syncer) started(unit Unit) {
	if s.progress == nil {
		return
	}
	total, err := countRegular(s.fs, unit.Source)
	if err != nil {
		total = -1
	}
	s.progress.UnitStarted(unit, total)
}

func destinationFor(unit Unit, path string) (string, error) {
	rel, err := filepath.Rel(unit.Source, path)
	if err != nil {
		return "", fmt.Errorf("relative path for %s: %w", path, err)
	}
	return filepath.Join(unit.Destination, rel), nil
}

func dirMode(info os.FileInfo) os.FileMode {
	if perm := info.Mode().Perm(); perm&0o700 == 0o700 {
		return perm
	}
	return 0o755
}

func wrapWalkErr(unit Unit, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, faults.ErrIO) || errors.Is(err, faults.ErrAttributesUnsupported) {
		return err
	}
	return faults.Wrap(faults.ErrIO, "archive", "sync unit", unit.Name, err)
}
