// Package archive mirrors an organized library onto an archive volume.
//
// Only top-level YYYY-MM folders are synced, in name order. A month missing
// from the destination is copied wholesale; a month that already exists is
// diffed file by file, and files present at the same relative path are
// trusted without re-hashing. The engine is strictly additive: it never
// deletes, never overwrites, and never modifies the source, so an
// interrupted run is resumed by simply running it again.
package archive
