package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"mediashelf/internal/layout"
)

// Unit is one month folder paired with its destination counterpart.
type Unit struct {
	Name        string
	Source      string
	Destination string
	// Exists is true when Destination is already present.
	Exists bool
}

// Units lists the YYYY-MM folders at the top of srcRoot in name order. A
// symlink to a directory counts as a month folder.
func Units(fs afero.Fs, srcRoot, dstRoot string) ([]Unit, error) {
	entries, err := afero.ReadDir(fs, srcRoot)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", srcRoot, err)
	}

	var units []Unit
	for _, entry := range entries {
		if !layout.IsMonthFolder(entry.Name()) || !isDirOrLinkToDir(fs, filepath.Join(srcRoot, entry.Name()), entry) {
			continue
		}
		unit := Unit{
			Name:        entry.Name(),
			Source:      filepath.Join(srcRoot, entry.Name()),
			Destination: filepath.Join(dstRoot, entry.Name()),
		}
		info, err := fs.Stat(unit.Destination)
		switch {
		case err == nil && info.IsDir():
			unit.Exists = true
		case err == nil:
			return nil, fmt.Errorf("destination %s exists and is not a directory", unit.Destination)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("stat %s: %w", unit.Destination, err)
		}
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func isDirOrLinkToDir(fs afero.Fs, path string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	target, err := fs.Stat(path)
	return err == nil && target.IsDir()
}
