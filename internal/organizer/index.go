package organizer

// DuplicateIndex maps a content digest to the first path seen with it. It is
// owned by the caller of a run so tests can seed and inspect it.
type DuplicateIndex struct {
	first map[string]string
}

// NewDuplicateIndex returns an empty index.
func NewDuplicateIndex() *DuplicateIndex {
	return &DuplicateIndex{first: make(map[string]string)}
}

// Lookup returns the first-seen path for hash.
func (d *DuplicateIndex) Lookup(hash string) (string, bool) {
	path, ok := d.first[hash]
	return path, ok
}

// Record stores path as the first-seen owner of hash. It returns false and
// leaves the index untouched when hash is already known.
func (d *DuplicateIndex) Record(hash, path string) bool {
	if _, ok := d.first[hash]; ok {
		return false
	}
	d.first[hash] = path
	return true
}

// Len reports the number of distinct digests recorded.
func (d *DuplicateIndex) Len() int {
	return len(d.first)
}

// Entries returns a copy of the index.
func (d *DuplicateIndex) Entries() map[string]string {
	out := make(map[string]string, len(d.first))
	for hash, path := range d.first {
		out[hash] = path
	}
	return out
}
