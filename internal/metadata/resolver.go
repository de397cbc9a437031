// Package metadata resolves the capture time and geo-tag status of media files.
//
// Images are decoded with goexif; DateTimeOriginal wins when present and
// parseable. Every decode problem falls back silently to the filesystem
// modification time, and the returned CaptureInfo records which source was
// used so callers and tests can see the fallback explicitly.
package metadata

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"mediashelf/internal/media"
)

// exifTimeLayout is the EXIF DateTime encoding, YYYY:MM:DD HH:MM:SS.
const exifTimeLayout = "2006:01:02 15:04:05"

// Source names where a capture timestamp came from.
type Source int

const (
	SourceFilesystem Source = iota
	SourceExif
)

func (s Source) String() string {
	if s == SourceExif {
		return "exif"
	}
	return "mtime"
}

// CaptureInfo is the resolved capture metadata for one file. Timestamp is
// never zero.
type CaptureInfo struct {
	Timestamp time.Time
	Source    Source
	GeoTagged bool
}

// Resolver yields capture metadata for a path.
type Resolver interface {
	Resolve(path string) (CaptureInfo, error)
}

// gpsFields are probed to decide whether the GPS IFD carries anything.
var gpsFields = []exif.FieldName{
	exif.GPSVersionID,
	exif.GPSLatitude,
	exif.GPSLongitude,
	exif.GPSAltitude,
	exif.GPSTimeStamp,
	exif.GPSDateStamp,
}

// ExifResolver reads embedded EXIF for images and file mtimes for everything else.
type ExifResolver struct {
	fs       afero.Fs
	location *time.Location
}

// NewExifResolver constructs a resolver over fs. EXIF timestamps carry no zone
// and are interpreted in loc (time.Local when nil).
func NewExifResolver(fs afero.Fs, loc *time.Location) *ExifResolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ExifResolver{fs: fs, location: loc}
}

// Resolve returns the capture info for path. Only a failure to stat the file
// is reported; metadata problems degrade to the mtime fallback.
func (r *ExifResolver) Resolve(path string) (CaptureInfo, error) {
	if media.IsImage(media.Ext(path)) {
		if x, err := r.decode(path); err == nil {
			info := CaptureInfo{GeoTagged: hasGPS(x)}
			if ts, ok := r.originalTime(x); ok {
				info.Timestamp = ts
				info.Source = SourceExif
				return info, nil
			}
			mtime, err := r.modTime(path)
			if err != nil {
				return CaptureInfo{}, err
			}
			info.Timestamp = mtime
			return info, nil
		}
	}

	mtime, err := r.modTime(path)
	if err != nil {
		return CaptureInfo{}, err
	}
	return CaptureInfo{Timestamp: mtime, Source: SourceFilesystem}, nil
}

func (r *ExifResolver) decode(path string) (x *exif.Exif, err error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// goexif can panic on truncated IFDs; treat that as undecodable.
	defer func() {
		if rec := recover(); rec != nil {
			x = nil
			err = fmt.Errorf("decode exif: %v", rec)
		}
	}()

	x, err = exif.Decode(f)
	if x == nil {
		if err == nil {
			err = errors.New("decode exif: no data")
		}
		return nil, err
	}
	if err != nil && exif.IsCriticalError(err) {
		return nil, err
	}
	return x, nil
}

func (r *ExifResolver) originalTime(x *exif.Exif) (time.Time, bool) {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	ts, err := time.ParseInLocation(exifTimeLayout, raw, r.location)
	if err != nil || ts.IsZero() {
		return time.Time{}, false
	}
	return ts, true
}

func (r *ExifResolver) modTime(path string) (time.Time, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime().In(r.location), nil
}

func hasGPS(x *exif.Exif) bool {
	for _, field := range gpsFields {
		if _, err := x.Get(field); err == nil {
			return true
		}
	}
	return false
}
