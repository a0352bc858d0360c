package testsupport

import (
	"context"
	"testing"

	"teko/internal/collection"
	"teko/internal/config"
)

// MustOpenStore opens a collection.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *collection.Store {
	t.Helper()

	store, err := collection.Open(cfg)
	if err != nil {
		t.Fatalf("collection.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustCreateRecord inserts a record for owner with the given artist and title.
func MustCreateRecord(t testing.TB, store *collection.Store, owner, artist, title string) *collection.Record {
	t.Helper()

	rec, err := store.Create(context.Background(), owner, collection.Draft{Artist: artist, AlbumTitle: title})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return rec
}
