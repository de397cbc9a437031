package organizer

import "testing"

func TestDuplicateIndexFirstSeenWins(t *testing.T) {
	index := NewDuplicateIndex()
	if !index.Record("h1", "/a.jpg") {
		t.Fatal("first Record should succeed")
	}
	if index.Record("h1", "/b.jpg") {
		t.Fatal("second Record for the same hash should be rejected")
	}
	if got, _ := index.Lookup("h1"); got != "/a.jpg" {
		t.Fatalf("Lookup = %q, want /a.jpg", got)
	}
	if _, ok := index.Lookup("h2"); ok {
		t.Fatal("unexpected hit for unknown hash")
	}

	entries := index.Entries()
	entries["h1"] = "/mutated"
	if got, _ := index.Lookup("h1"); got != "/a.jpg" {
		t.Fatal("Entries must return a copy")
	}
	if index.Len() != 1 {
		t.Fatalf("Len = %d, want 1", index.Len())
	}
}
