package archive

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"mediashelf/internal/faults"
)

// attrRejectingFs behaves like a destination volume without POSIX times.
type attrRejectingFs struct {
	afero.Fs
	errno unix.Errno
}

func (f attrRejectingFs) Chtimes(name string, atime, mtime time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: f.errno}
}

func seed(t *testing.T, fs afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fs.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("/dst", 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestPreservingCopierKeepsModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	seed(t, fs, "/src/a.jpg", "pixels", mtime)

	n, err := NewPreservingCopier(fs).Copy("/src/a.jpg", "/src/b.jpg")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len("pixels")) {
		t.Fatalf("bytes = %d", n)
	}
	info, err := fs.Stat("/src/b.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestFallbackCopierRetriesWithPlainCopy(t *testing.T) {
	base := afero.NewMemMapFs()
	mtime := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	seed(t, base, "/src/a.jpg", "pixels", mtime)
	fs := attrRejectingFs{Fs: base, errno: unix.ENOTSUP}

	copier := NewFallbackCopier(NewPreservingCopier(fs), NewPlainCopier(fs), nil)
	if _, err := copier.Copy("/src/a.jpg", "/dst/a.jpg"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if copier.Fallbacks() != 1 {
		t.Fatalf("fallbacks = %d, want 1", copier.Fallbacks())
	}
	data, err := afero.ReadFile(base, "/dst/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pixels" {
		t.Fatalf("content = %q", data)
	}
}

func TestFallbackCopierPropagatesOtherErrors(t *testing.T) {
	base := afero.NewMemMapFs()
	seed(t, base, "/src/a.jpg", "pixels", time.Now())
	fs := attrRejectingFs{Fs: base, errno: unix.EIO}

	copier := NewFallbackCopier(NewPreservingCopier(fs), NewPlainCopier(fs), nil)
	_, err := copier.Copy("/src/a.jpg", "/dst/a.jpg")
	if err == nil {
		t.Fatal("expected error")
	}
	if faults.Recoverable(err) {
		t.Fatalf("EIO must not be treated as recoverable: %v", err)
	}
	if copier.Fallbacks() != 0 {
		t.Fatalf("fallbacks = %d, want 0", copier.Fallbacks())
	}
}

func TestIsAttributeUnsupported(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eperm", &os.PathError{Op: "chmod", Err: unix.EPERM}, true},
		{"enotsup", &os.PathError{Op: "chtimes", Err: unix.ENOTSUP}, true},
		{"einval", &os.PathError{Op: "chtimes", Err: unix.EINVAL}, true},
		{"enosys", unix.ENOSYS, true},
		{"marker", faults.Wrap(faults.ErrAttributesUnsupported, "archive", "", "", nil), true},
		{"eio", &os.PathError{Op: "chtimes", Err: unix.EIO}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAttributeUnsupported(tc.err); got != tc.want {
				t.Fatalf("IsAttributeUnsupported(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestNewCopierHonoursPreserveFlag(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, ok := NewCopier(fs, false, nil).(*PlainCopier); !ok {
		t.Fatal("expected PlainCopier when preserve is off")
	}
	if _, ok := NewCopier(fs, true, nil).(*FallbackCopier); !ok {
		t.Fatal("expected FallbackCopier when preserve is on")
	}
}
