package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediashelf/internal/faults"
	"mediashelf/internal/runlock"
	"mediashelf/internal/testsupport"
)

func TestOrganizeCommandInboxScenario(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "library")
	photo := testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "2025:03:14 10:00:00"}, []byte("sunrise"))
	testsupport.WriteFile(t, filepath.Join(root, "_inbox", "IMG_0001.JPG"), photo)

	out, _, err := runCLI(t, []string{"organize", "--inbox", root}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Moved")
	if _, err := os.Stat(filepath.Join(root, "2025-03", "2025-03-14", "jpeg", "IMG_0001.JPG")); err != nil {
		t.Fatalf("expected canonical file: %v", err)
	}

	testsupport.WriteFile(t, filepath.Join(root, "_inbox", "IMG_0001.JPG"), photo)
	out, _, err = runCLI(t, []string{"organize", "--inbox", root}, env.configPath)
	if err != nil {
		t.Fatalf("organize again: %v", err)
	}
	requireContains(t, out, "Duplicates quarantined")
	requireContains(t, out, "2025-03/2025-03-14/jpeg/IMG_0001.JPG")
	requireContains(t, out, "_duplicates/IMG_0001.JPG")

	out, _, err = runCLI(t, []string{"organize", root}, env.configPath)
	if err != nil {
		t.Fatalf("organize library: %v", err)
	}
	requireContains(t, out, "Nothing to organize")
}

func TestOrganizeCommandArguments(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"organize"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a root")
	}
	requireContains(t, err.Error(), "accepts 1 arg(s)")
	requireContains(t, err.Error(), "Usage:")
	requireContains(t, err.Error(), "mediashelf organize <library-root>")
	if _, _, err := runCLI(t, []string{"organize", "a", "b"}, env.configPath); err == nil {
		t.Fatal("expected error with two roots")
	}

	_, _, err = runCLI(t, []string{"organize", filepath.Join(env.baseDir, "missing")}, env.configPath)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for missing root, got %v", err)
	}

	file := filepath.Join(env.baseDir, "file.jpg")
	testsupport.WriteFile(t, file, []byte("x"))
	if _, _, err := runCLI(t, []string{"organize", file}, env.configPath); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for file root, got %v", err)
	}
}

func TestOrganizeCommandRefusesLockedRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "library")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	lock, err := runlock.Acquire(root)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = lock.Release() }()

	if _, _, err := runCLI(t, []string{"organize", root}, env.configPath); !errors.Is(err, faults.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestSyncCommandReportsTotals(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "library")
	dst := filepath.Join(env.baseDir, "archive")
	for _, rel := range []string{
		"2025-03/2025-03-01/jpeg/a.jpg",
		"2025-03/2025-03-01/jpeg/b.jpg",
		"2025-04/2025-04-02/video/c.mov",
	} {
		testsupport.WriteFile(t, filepath.Join(src, rel), []byte(rel))
	}
	testsupport.WriteFile(t, filepath.Join(dst, "2025-03/2025-03-01/jpeg/a.jpg"), []byte("2025-03/2025-03-01/jpeg/a.jpg"))

	out, _, err := runCLI(t, []string{"sync", src, dst}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Total files copied: 2")
	requireContains(t, out, "Total files already on archive: 1")
	requireContains(t, out, "2025-04")

	out, _, err = runCLI(t, []string{"sync", src, dst}, env.configPath)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	requireContains(t, out, "Total files copied: 0")
}

func TestSyncCommandNothingToDo(t *testing.T) {
	env := setupCLITestEnv(t)
	src := t.TempDir()
	dst := t.TempDir()

	out, _, err := runCLI(t, []string{"sync", src, dst}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Nothing to sync")

	_, _, err = runCLI(t, []string{"sync", src}, env.configPath)
	if err == nil {
		t.Fatal("expected error with one root")
	}
	requireContains(t, err.Error(), "Usage:")
	requireContains(t, err.Error(), "mediashelf sync <source-root> <destination-root>")
	if _, _, err := runCLI(t, []string{"sync", src, filepath.Join(dst, "missing")}, env.configPath); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "library")
	testsupport.WriteFile(t, filepath.Join(root, "clip.mov"), []byte("frames"))

	if _, _, err := runCLI(t, []string{"organize", root}, env.configPath); err != nil {
		t.Fatalf("organize: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries")
	requireContains(t, out, env.cachePath)

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 stale entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 entries")
}

func TestSyncCommandReportsEntriesLeftBehind(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "library")
	dst := filepath.Join(env.baseDir, "archive")
	testsupport.WriteFile(t, filepath.Join(src, "2025-03", "a.jpg"), []byte("a"))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(env.baseDir, "gone.jpg"), filepath.Join(src, "2025-03", "broken.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	out, stderr, err := runCLI(t, []string{"sync", src, dst}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Total files copied: 1")
	requireContains(t, out, "Entries not copied (dangling links or special files, see warnings): 1")
	requireContains(t, stderr, "source entry not copied")
}
