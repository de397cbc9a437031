// Package media classifies library files by extension.
package media

import (
	"path/filepath"
	"strings"
)

// Category is the media class a file is filed under.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryImage
	CategoryRaw
	CategoryVideo
)

func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryRaw:
		return "raw"
	case CategoryVideo:
		return "video"
	default:
		return "unknown"
	}
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".jpe":  {},
	".tif":  {},
	".tiff": {},
	".heic": {},
	".png":  {},
}

var rawExts = map[string]struct{}{
	".raf": {},
	".cr2": {},
	".nef": {},
	".dng": {},
	".arw": {},
	".rw2": {},
	".orf": {},
}

var videoExts = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".m4v":  {},
	".avi":  {},
	".mts":  {},
	".m2ts": {},
}

// File is a media file discovered during a walk.
type File struct {
	Path     string
	Ext      string
	Category Category
}

// Ext returns the lowercase extension of path, including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Classify maps an extension (any case, with or without the dot) to its category.
func Classify(ext string) Category {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, ok := imageExts[ext]; ok {
		return CategoryImage
	}
	if _, ok := rawExts[ext]; ok {
		return CategoryRaw
	}
	if _, ok := videoExts[ext]; ok {
		return CategoryVideo
	}
	return CategoryUnknown
}

// IsImage reports whether the extension belongs to the image set, the only set
// whose embedded metadata is decoded.
func IsImage(ext string) bool {
	return Classify(ext) == CategoryImage
}

// FromPath builds a File for path. ok is false when the extension is not a
// recognized media type.
func FromPath(path string) (File, bool) {
	ext := Ext(path)
	category := Classify(ext)
	if category == CategoryUnknown {
		return File{}, false
	}
	return File{Path: path, Ext: ext, Category: category}, true
}
