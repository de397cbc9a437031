package placement

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"mediashelf/internal/faults"
)

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPlaceMovesIntoTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/_inbox/IMG_0001.JPG", "a")

	dst, moved, err := New(fs).Place("/lib/_inbox/IMG_0001.JPG", "/lib/2025-03/2025-03-14/jpeg")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if !moved {
		t.Fatal("expected move")
	}
	if want := "/lib/2025-03/2025-03-14/jpeg/IMG_0001.JPG"; dst != want {
		t.Fatalf("dst = %q, want %q", dst, want)
	}
}

func TestPlaceLeavesPlacedFileAlone(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/2025-03/2025-03-14/jpeg/a.jpg", "a")

	dst, moved, err := New(fs).Place("/lib/2025-03/2025-03-14/jpeg/a.jpg", "/lib/2025-03/2025-03-14/jpeg/")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if moved || dst != "/lib/2025-03/2025-03-14/jpeg/a.jpg" {
		t.Fatalf("got dst=%q moved=%v, want untouched", dst, moved)
	}
}

func TestPlaceCollisionKeepsBothFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/x/a.jpg", "first")
	write(t, fs, "/lib/y/a.jpg", "second")
	write(t, fs, "/lib/z/a.jpg", "third")
	placer := New(fs)
	target := "/lib/2025-01/2025-01-01/jpeg"

	var got []string
	for _, src := range []string{"/lib/x/a.jpg", "/lib/y/a.jpg", "/lib/z/a.jpg"} {
		dst, _, err := placer.Place(src, target)
		if err != nil {
			t.Fatalf("Place %s: %v", src, err)
		}
		got = append(got, dst)
	}

	want := []string{target + "/a.jpg", target + "/a_1.jpg", target + "/a_2.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placement %d = %q, want %q", i, got[i], want[i])
		}
	}
	contents := map[string]string{want[0]: "first", want[1]: "second", want[2]: "third"}
	for path, content := range contents {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != content {
			t.Fatalf("%s = %q, want %q", path, data, content)
		}
	}
}

func TestAlreadyPlacedNormalizesUnicode(t *testing.T) {
	decomposed := "/lib/Cafe\u0301/a.jpg"
	composed := "/lib/Caf\u00e9"
	if !AlreadyPlaced(decomposed, composed) {
		t.Fatal("expected NFD and NFC paths to compare equal")
	}
	if AlreadyPlaced("/lib/other/a.jpg", composed) {
		t.Fatal("different directories must not compare equal")
	}
}

func TestNextFreeName(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/d/clip.mov", "")
	write(t, fs, "/d/clip_1.mov", "")
	write(t, fs, "/d/noext", "")

	cases := []struct {
		name string
		want string
	}{
		{"fresh.jpg", "/d/fresh.jpg"},
		{"clip.mov", "/d/clip_2.mov"},
		{"noext", "/d/noext_1"},
	}
	for _, tc := range cases {
		got, err := NextFreeName(fs, "/d", tc.name)
		if err != nil {
			t.Fatalf("NextFreeName(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("NextFreeName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

type failingRenameFs struct {
	afero.Fs
}

func (f failingRenameFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
}

func TestPlacePropagatesMoveErrors(t *testing.T) {
	fs := failingRenameFs{Fs: afero.NewMemMapFs()}
	write(t, fs, "/lib/a.jpg", "a")

	_, moved, err := New(fs).Place("/lib/a.jpg", "/lib/2025-01/2025-01-01/jpeg")
	if err == nil || moved {
		t.Fatalf("expected failure, got moved=%v err=%v", moved, err)
	}
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("expected ErrIO marker, got %v", err)
	}
	if ok, _ := afero.Exists(fs, "/lib/a.jpg"); !ok {
		t.Fatal("source must survive a failed move")
	}
}
