package metadata_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"mediashelf/internal/metadata"
	"mediashelf/internal/testsupport"
)

func TestResolveReadsDateTimeOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.JPG")
	testsupport.WriteFile(t, path, testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "2025:03:14 10:00:00"}, []byte("a")))
	testsupport.SetModTime(t, path, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	resolver := metadata.NewExifResolver(afero.NewOsFs(), time.UTC)
	info, err := resolver.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	if !info.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", info.Timestamp, want)
	}
	if info.Source != metadata.SourceExif {
		t.Fatalf("expected exif source, got %s", info.Source)
	}
	if info.GeoTagged {
		t.Fatal("expected no geo tag without GPS block")
	}
}

func TestResolveDetectsGPSBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0002.jpg")
	testsupport.WriteFile(t, path, testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "2024:07:04 18:30:00", GPS: true}, nil))

	info, err := metadata.NewExifResolver(nil, time.UTC).Resolve(path)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !info.GeoTagged {
		t.Fatal("expected geo tag from GPS block")
	}
	if info.Source != metadata.SourceExif || info.Timestamp.Day() != 4 {
		t.Fatalf("unexpected capture info: %+v", info)
	}
}

func TestResolveFallsBackToModTime(t *testing.T) {
	mtime := time.Date(2019, time.May, 2, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		file    string
		content func(t *testing.T) []byte
		geo     bool
	}{
		{"corrupt image", "broken.jpg", func(*testing.T) []byte { return []byte("definitely not a jpeg") }, false},
		{"image without date", "nodate.jpg", func(t *testing.T) []byte {
			return testsupport.JPEG(t, testsupport.ExifOptions{GPS: true}, nil)
		}, true},
		{"malformed date", "baddate.jpg", func(t *testing.T) []byte {
			return testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "0000:00:00 00:00:00"}, nil)
		}, false},
		{"raw never decoded", "DSC_1.NEF", func(t *testing.T) []byte {
			return testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "2025:01:01 00:00:00", GPS: true}, nil)
		}, false},
		{"video", "clip.mov", func(*testing.T) []byte { return []byte("moov") }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			testsupport.WriteFile(t, path, tc.content(t))
			testsupport.SetModTime(t, path, mtime)

			info, err := metadata.NewExifResolver(afero.NewOsFs(), time.UTC).Resolve(path)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if info.Source != metadata.SourceFilesystem {
				t.Fatalf("expected mtime source, got %s", info.Source)
			}
			if !info.Timestamp.Equal(mtime) {
				t.Fatalf("timestamp = %v, want %v", info.Timestamp, mtime)
			}
			if info.GeoTagged != tc.geo {
				t.Fatalf("geo = %v, want %v", info.GeoTagged, tc.geo)
			}
		})
	}
}

func TestResolveMissingFile(t *testing.T) {
	_, err := metadata.NewExifResolver(afero.NewMemMapFs(), nil).Resolve("/nope/IMG.jpg")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveOnMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := testsupport.JPEG(t, testsupport.ExifOptions{DateTimeOriginal: "2001:02:03 04:05:06"}, []byte("x"))
	if err := afero.WriteFile(fs, "/lib/a.jpeg", data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := metadata.NewExifResolver(fs, time.UTC).Resolve("/lib/a.jpeg")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if info.Timestamp.Year() != 2001 || info.Source != metadata.SourceExif {
		t.Fatalf("unexpected capture info: %+v", info)
	}
}
