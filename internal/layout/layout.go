// Package layout derives canonical library locations.
//
// The library is laid out as root/YYYY-MM/YYYY-MM-DD/[geo/]{jpeg|raw|video}.
// Everything here is a pure function of its inputs so the organizer and tests
// agree on where a file belongs without touching the filesystem.
package layout

import (
	"path/filepath"
	"time"

	"mediashelf/internal/media"
)

const (
	LeafJPEG  = "jpeg"
	LeafRaw   = "raw"
	LeafVideo = "video"
	GeoDir    = "geo"
)

// MonthName formats the top-level folder for t ("2025-03").
func MonthName(t time.Time) string {
	return t.Format("2006-01")
}

// DayName formats the day folder for t ("2025-03-14").
func DayName(t time.Time) string {
	return t.Format("2006-01-02")
}

// Leaf returns the path below the day folder for a category. Video never
// honours the geo flag. Unknown categories are filed with images.
func Leaf(category media.Category, geoTagged bool) string {
	var leaf string
	switch category {
	case media.CategoryVideo:
		return LeafVideo
	case media.CategoryRaw:
		leaf = LeafRaw
	default:
		leaf = LeafJPEG
	}
	if geoTagged {
		return filepath.Join(GeoDir, leaf)
	}
	return leaf
}

// CanonicalDir returns root/YYYY-MM/YYYY-MM-DD/<leaf> for the capture time.
func CanonicalDir(root string, category media.Category, captured time.Time, geoTagged bool) string {
	return filepath.Join(root, MonthName(captured), DayName(captured), Leaf(category, geoTagged))
}

// IsMonthFolder reports whether name looks like YYYY-MM.
func IsMonthFolder(name string) bool {
	if len(name) != 7 || name[4] != '-' {
		return false
	}
	return allDigits(name[:4]) && allDigits(name[5:])
}

// IsLeafName reports whether name is one of the folder names the current
// layout produces below a day folder.
func IsLeafName(name string) bool {
	switch name {
	case LeafJPEG, LeafRaw, LeafVideo, GeoDir:
		return true
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
