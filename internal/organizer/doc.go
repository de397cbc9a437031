// Package organizer files a photo/video library into its canonical
// root/YYYY-MM/YYYY-MM-DD/[geo/]{jpeg|raw|video} layout.
//
// A run collects the media files under the walk root first and only then
// processes them, so a file moved during the run is never visited twice.
// Every file is hashed; the first file seen with a given digest is placed at
// its canonical location and every later one is quarantined, flat, into the
// duplicates folder. Files already sitting in their canonical folder are left
// alone, which makes a re-run over an organized tree a no-op.
//
// Nothing here deletes media. The only removals are empty directory trees
// left behind by the superseded photos/videos layout.
package organizer
