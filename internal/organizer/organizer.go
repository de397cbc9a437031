package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mediashelf/internal/config"
	"mediashelf/internal/faults"
	"mediashelf/internal/hashing"
	"mediashelf/internal/layout"
	"mediashelf/internal/logging"
	"mediashelf/internal/media"
	"mediashelf/internal/metadata"
	"mediashelf/internal/placement"
)

// Mode selects which part of the library a run walks.
type Mode int

const (
	// ModeLibrary walks the whole library root.
	ModeLibrary Mode = iota
	// ModeInbox walks only the inbox drop folder and checks new files against
	// the content already in the library.
	ModeInbox
)

func (m Mode) String() string {
	if m == ModeInbox {
		return "inbox"
	}
	return "library"
}

// Options carries the folder conventions of a run.
type Options struct {
	Mode          Mode
	InboxDir      string
	DuplicatesDir string
	LegacyDirs    []string
}

// OptionsFromConfig builds run options from the organize config section.
func OptionsFromConfig(cfg *config.Config, mode Mode) Options {
	return Options{
		Mode:          mode,
		InboxDir:      cfg.Organize.InboxDir,
		DuplicatesDir: cfg.Organize.DuplicatesDir,
		LegacyDirs:    append([]string(nil), cfg.Organize.LegacyDirs...),
	}
}

// DuplicateRecord describes a quarantined file.
type DuplicateRecord struct {
	// Path is where the duplicate was found.
	Path string
	// Quarantined is where it was moved.
	Quarantined string
	// Original is the first-seen file with the same content.
	Original string
}

// Summary reports what a run did.
type Summary struct {
	Mode              Mode
	Scanned           int
	Indexed           int
	Moved             int
	Duplicates        int
	Unchanged         int
	Skipped           int
	RemovedLegacyDirs int
	Duplicated        []DuplicateRecord
}

// Changed reports whether the run touched the filesystem.
func (s Summary) Changed() bool {
	return s.Moved > 0 || s.Duplicates > 0 || s.RemovedLegacyDirs > 0
}

// renameTracker is implemented by hashers that key state on a file path.
type renameTracker interface {
	Rename(ctx context.Context, from, to, hash string)
}

// Organizer moves media into the canonical layout.
type Organizer struct {
	fs       afero.Fs
	hasher   hashing.Hasher
	resolver metadata.Resolver
	placer   *placement.Placer
	opts     Options
	logger   *slog.Logger
}

// New constructs an Organizer. fs must be the filesystem hasher and resolver
// read from.
func New(fs afero.Fs, hasher hashing.Hasher, resolver metadata.Resolver, opts Options, logger *slog.Logger) *Organizer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if hasher == nil {
		hasher = hashing.NewSHA256(fs)
	}
	if resolver == nil {
		resolver = metadata.NewExifResolver(fs, nil)
	}
	if strings.TrimSpace(opts.InboxDir) == "" {
		opts.InboxDir = config.DefaultInboxDir
	}
	if strings.TrimSpace(opts.DuplicatesDir) == "" {
		opts.DuplicatesDir = config.DefaultDuplicatesDir
	}
	return &Organizer{
		fs:       fs,
		hasher:   hasher,
		resolver: resolver,
		placer:   placement.New(fs),
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "organizer"),
	}
}

// Run organizes root with a fresh duplicate index.
func (o *Organizer) Run(ctx context.Context, root string) (Summary, error) {
	return o.RunWithIndex(ctx, root, NewDuplicateIndex())
}

// RunWithIndex organizes root, consulting and extending index. A move or hash
// failure stops the run; everything done before it stays valid and a re-run
// picks up where this one stopped.
func (o *Organizer) RunWithIndex(ctx context.Context, root string, index *DuplicateIndex) (Summary, error) {
	summary := Summary{Mode: o.opts.Mode}
	root = filepath.Clean(root)
	logger := logging.WithContext(ctx, o.logger).With(logging.String("root", root))

	inboxDir := filepath.Join(root, o.opts.InboxDir)
	duplicatesDir := filepath.Join(root, o.opts.DuplicatesDir)
	walkRoot := root
	exclude := map[string]struct{}{duplicatesDir: {}}

	if o.opts.Mode == ModeInbox {
		if err := o.fs.MkdirAll(inboxDir, 0o755); err != nil {
			return summary, faults.Wrap(faults.ErrIO, "organizer", "ensure inbox", "Failed to create inbox folder", err)
		}
		indexed, err := o.seed(ctx, root, index, map[string]struct{}{duplicatesDir: {}, inboxDir: {}})
		if err != nil {
			return summary, err
		}
		summary.Indexed = indexed
		walkRoot = inboxDir
	}

	found, err := collect(o.fs, walkRoot, exclude, logger)
	if err != nil {
		return summary, faults.Wrap(faults.ErrIO, "organizer", "walk", fmt.Sprintf("Failed to walk %s", walkRoot), err)
	}
	summary.Scanned = found.scanned
	summary.Skipped = found.skipped
	logger.Info("organize scan complete",
		logging.String("mode", o.opts.Mode.String()),
		logging.Int("media_files", len(found.files)),
		logging.Int("skipped", found.skipped),
		logging.Int("indexed", summary.Indexed),
	)

	for _, file := range found.files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := o.process(ctx, root, duplicatesDir, file, index, &summary, logger); err != nil {
			return summary, err
		}
	}

	cleanup := CleanupLegacy(ctx, o.fs, root, o.opts.LegacyDirs, []string{duplicatesDir, inboxDir}, logger)
	summary.RemovedLegacyDirs = len(cleanup.Removed)
	for _, failure := range cleanup.Errors {
		logger.Debug("legacy cleanup error", logging.String("path", failure.Path), logging.Error(failure.Error))
	}
	return summary, nil
}

func (o *Organizer) process(ctx context.Context, root, duplicatesDir string, file media.File, index *DuplicateIndex, summary *Summary, logger *slog.Logger) error {
	hash, err := o.hasher.Sum(ctx, file.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return faults.Wrap(faults.ErrIO, "organizer", "hash", fmt.Sprintf("Failed to hash %s", file.Path), err)
	}

	if original, ok := index.Lookup(hash); ok {
		dst, moved, err := o.placer.Place(file.Path, duplicatesDir)
		if err != nil {
			return err
		}
		if !moved {
			summary.Unchanged++
			return nil
		}
		o.trackRename(ctx, file.Path, dst, hash)
		summary.Duplicates++
		summary.Duplicated = append(summary.Duplicated, DuplicateRecord{Path: file.Path, Quarantined: dst, Original: original})
		logger.Info("quarantined duplicate",
			logging.String("path", file.Path),
			logging.String("destination", dst),
			logging.String("original", original),
			logging.String(logging.FieldEventType, "duplicate_quarantined"),
		)
		return nil
	}

	info, err := o.resolver.Resolve(file.Path)
	if err != nil {
		return faults.Wrap(faults.ErrIO, "organizer", "resolve metadata", fmt.Sprintf("Failed to read %s", file.Path), err)
	}
	target := layout.CanonicalDir(root, file.Category, info.Timestamp, info.GeoTagged)
	dst, moved, err := o.placer.Place(file.Path, target)
	if err != nil {
		return err
	}
	index.Record(hash, dst)
	if !moved {
		summary.Unchanged++
		return nil
	}
	o.trackRename(ctx, file.Path, dst, hash)
	summary.Moved++
	label, _ := filepath.Rel(root, target)
	logger.Info("moved",
		logging.String("path", file.Path),
		logging.String("destination", dst),
		logging.String("folder", filepath.ToSlash(label)),
		logging.String("capture_source", info.Source.String()),
		logging.String(logging.FieldEventType, "file_moved"),
	)
	return nil
}

// seed records the content already in the library so inbox files that repeat
// it are quarantined.
func (o *Organizer) seed(ctx context.Context, root string, index *DuplicateIndex, exclude map[string]struct{}) (int, error) {
	found, err := collect(o.fs, root, exclude, o.logger)
	if err != nil {
		return 0, faults.Wrap(faults.ErrIO, "organizer", "index library", fmt.Sprintf("Failed to walk %s", root), err)
	}
	indexed := 0
	for _, file := range found.files {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		hash, err := o.hasher.Sum(ctx, file.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return indexed, ctxErr
			}
			return indexed, faults.Wrap(faults.ErrIO, "organizer", "index library", fmt.Sprintf("Failed to hash %s", file.Path), err)
		}
		if index.Record(hash, file.Path) {
			indexed++
		}
	}
	return indexed, nil
}

func (o *Organizer) trackRename(ctx context.Context, from, to, hash string) {
	if tracker, ok := o.hasher.(renameTracker); ok {
		tracker.Rename(ctx, from, to, hash)
	}
}
