package collection_test

import (
	"errors"
	"testing"

	"teko/internal/collection"
)

func TestParseSortOrder(t *testing.T) {
	cases := map[string]collection.SortOrder{
		"":        collection.SortNewest,
		"Artist":  collection.SortArtist,
		" title ": collection.SortTitle,
		"year":    collection.SortYear,
	}
	for input, want := range cases {
		got, err := collection.ParseSortOrder(input)
		if err != nil {
			t.Fatalf("ParseSortOrder(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseSortOrder(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := collection.ParseSortOrder("price"); !errors.Is(err, collection.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestDraftValidatePurchaseDateAndPrice(t *testing.T) {
	price := -1.0
	draft := collection.Draft{AlbumTitle: "Tago Mago", Artist: "Can", Price: &price}
	if err := draft.Validate(); !errors.Is(err, collection.ErrInvalidRecord) {
		t.Fatalf("expected negative price rejected, got %v", err)
	}
	draft.Price = nil
	draft.PurchaseDate = "12/03/2020"
	if err := draft.Validate(); !errors.Is(err, collection.ErrInvalidRecord) {
		t.Fatalf("expected bad date rejected, got %v", err)
	}
	draft.PurchaseDate = "2020-03-12"
	if err := draft.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}
