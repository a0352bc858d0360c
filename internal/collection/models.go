package collection

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PurchaseDateLayout is the accepted purchase date format.
const PurchaseDateLayout = "2006-01-02"

// Draft is the user- or pipeline-supplied content of a record. Optional fields
// are empty strings or nil pointers when unset.
type Draft struct {
	AlbumTitle           string   `json:"albumTitle"`
	Artist               string   `json:"artist"`
	ReleaseYear          *int     `json:"releaseYear,omitempty"`
	CoverArtURL          string   `json:"coverArtUrl,omitempty"`
	Genre                string   `json:"genre,omitempty"`
	MasterID             *int64   `json:"masterId,omitempty"`
	ReleaseID            *int64   `json:"releaseId,omitempty"`
	ReleaseLabel         string   `json:"releaseLabel,omitempty"`
	ReleaseCountry       string   `json:"releaseCountry,omitempty"`
	ReleaseCatalogNumber string   `json:"releaseCatalogNumber,omitempty"`
	Condition            string   `json:"condition,omitempty"`
	PurchaseDate         string   `json:"purchaseDate,omitempty"`
	Price                *float64 `json:"price,omitempty"`
	Notes                string   `json:"notes,omitempty"`
}

// Record is a persisted collection entry.
type Record struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Draft
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims every text field in place.
func (d *Draft) Normalize() {
	d.AlbumTitle = strings.TrimSpace(d.AlbumTitle)
	d.Artist = strings.TrimSpace(d.Artist)
	d.CoverArtURL = strings.TrimSpace(d.CoverArtURL)
	d.Genre = strings.TrimSpace(d.Genre)
	d.ReleaseLabel = strings.TrimSpace(d.ReleaseLabel)
	d.ReleaseCountry = strings.TrimSpace(d.ReleaseCountry)
	d.ReleaseCatalogNumber = strings.TrimSpace(d.ReleaseCatalogNumber)
	d.Condition = strings.TrimSpace(d.Condition)
	d.PurchaseDate = strings.TrimSpace(d.PurchaseDate)
	d.Notes = strings.TrimSpace(d.Notes)
}

// Validate checks the record invariants: title and artist must be non-empty
// after trimming, and the optional numeric and date fields must be sane.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.AlbumTitle) == "" {
		return fmt.Errorf("%w: album title is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(d.Artist) == "" {
		return fmt.Errorf("%w: artist is required", ErrInvalidRecord)
	}
	if d.ReleaseYear != nil && (*d.ReleaseYear < 1000 || *d.ReleaseYear > 9999) {
		return fmt.Errorf("%w: release year %d out of range", ErrInvalidRecord, *d.ReleaseYear)
	}
	if d.Price != nil && (*d.Price < 0 || math.IsNaN(*d.Price) || math.IsInf(*d.Price, 0)) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidRecord)
	}
	if date := strings.TrimSpace(d.PurchaseDate); date != "" {
		if _, err := time.Parse(PurchaseDateLayout, date); err != nil {
			return fmt.Errorf("%w: purchase date %q must be YYYY-MM-DD", ErrInvalidRecord, date)
		}
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	// Query matches title or artist case-insensitively.
	Query  string
	Artist string
	Genre  string
	Sort   SortOrder
	Limit  int
	Offset int
}

// SortOrder selects the List ordering.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortArtist SortOrder = "artist"
	SortTitle  SortOrder = "title"
	SortYear   SortOrder = "year"
)

// ParseSortOrder accepts a sort name case-insensitively. Empty selects SortNewest.
func ParseSortOrder(value string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(value))); order {
	case "":
		return SortNewest, nil
	case SortNewest, SortArtist, SortTitle, SortYear:
		return order, nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidRecord, value)
	}
}

func (o SortOrder) clause() string {
	switch o {
	case SortArtist:
		return "artist COLLATE NOCASE, album_title COLLATE NOCASE"
	case SortTitle:
		return "album_title COLLATE NOCASE, artist COLLATE NOCASE"
	case SortYear:
		return "release_year IS NULL, release_year, artist COLLATE NOCASE"
	default:
		return "created_at DESC, id"
	}
}

// Count is a labelled tally used by Stats.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats summarizes an owner's collection.
type Stats struct {
	TotalRecords int     `json:"totalRecords"`
	TotalSpend   float64 `json:"totalSpend"`
	Genres       []Count `json:"genres"`
	Decades      []Count `json:"decades"`
	TopArtists   []Count `json:"topArtists"`
}
