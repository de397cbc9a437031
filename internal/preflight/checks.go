package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mediashelf/internal/faults"
)

// Access names the permissions a directory must grant.
type Access uint32

const (
	// ReadOnly is enough for a sync source.
	ReadOnly Access = unix.R_OK | unix.X_OK
	// ReadWrite is required for anything mediashelf writes into.
	ReadWrite Access = unix.R_OK | unix.W_OK | unix.X_OK
)

func (a Access) String() string {
	if a&unix.W_OK != 0 {
		return "read/write"
	}
	return "read"
}

// CheckDirectoryAccess verifies that the directory exists and grants access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, uint32(access)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, access)}
}

// CheckRoot is CheckDirectoryAccess as an error for run entry points.
func CheckRoot(name, path string, access Access) error {
	result := CheckDirectoryAccess(name, path, access)
	if result.Passed {
		return nil
	}
	return faults.Wrap(faults.ErrValidation, "preflight", name, result.Detail, nil)
}
