// Package logs reads back the run log written when logging.file is enabled.
//
// Last returns the trailing lines of the file with bounded memory, optionally
// narrowed to one organize or sync run, and Follow streams lines appended
// after a known offset until the context ends.
package logs
