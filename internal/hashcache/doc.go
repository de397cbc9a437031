// Package hashcache persists content digests in SQLite keyed by path.
//
// An entry is only trusted while the file's size and modification time still
// match what was recorded, so an edited file is always re-hashed. The cache is
// an accelerator: any database failure degrades to hashing the file directly.
//
// Schema changes bump the version in schema.go; users clear the cache with
// `mediashelf cache clear` to adopt the new schema.
package hashcache
