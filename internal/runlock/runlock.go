// Package runlock keeps two mediashelf runs from working the same root at once.
package runlock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"mediashelf/internal/faults"
)

// FileName is the lock file created at the top of a locked root. The leading
// dot keeps it out of organize walks and archive units.
const FileName = ".mediashelf.lock"

// Lock is a held advisory lock on a root directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for root without blocking. A root already held by
// another process yields an error marked faults.ErrLocked.
func Acquire(root string) (*Lock, error) {
	path := filepath.Join(root, FileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "runlock", "acquire", fmt.Sprintf("Unable to lock %s", root), err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrLocked, "runlock", "acquire",
			fmt.Sprintf("another mediashelf run is already working on %s", root), nil)
	}
	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the root. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
