package discogs

import (
	"strconv"
	"strings"
)

// Pagination mirrors the Discogs pagination block.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// SearchResult is a single database search hit. For masters, Title is
// "Artist - Album".
type SearchResult struct {
	ID         int64    `json:"id"`
	MasterID   int64    `json:"master_id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Country    string   `json:"country"`
	CoverImage string   `json:"cover_image"`
	Thumb      string   `json:"thumb"`
	Genre      []string `json:"genre"`
	Style      []string `json:"style"`
}

// SplitTitle separates the "Artist - Album" title of a search result.
func (r SearchResult) SplitTitle() (artist, album string) {
	artist, album, found := strings.Cut(r.Title, " - ")
	if !found {
		return "", strings.TrimSpace(r.Title)
	}
	return strings.TrimSpace(artist), strings.TrimSpace(album)
}

// SearchResponse models the paginated database search response.
type SearchResponse struct {
	Pagination Pagination     `json:"pagination"`
	Results    []SearchResult `json:"results"`
}

// Artist is an artist credit on a master.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Join string `json:"join"`
}

// Image is a master or release image.
type Image struct {
	Type   string `json:"type"`
	URI    string `json:"uri"`
	URI150 string `json:"uri150"`
}

// Master describes a Discogs master release.
type Master struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Artists     []Artist `json:"artists"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	Styles      []string `json:"styles"`
	Images      []Image  `json:"images"`
	MainRelease int64    `json:"main_release"`
	URI         string   `json:"uri"`
}

// ArtistName joins the artist credits the way Discogs displays them.
func (m Master) ArtistName() string {
	var b strings.Builder
	for i, a := range m.Artists {
		b.WriteString(strings.TrimSpace(a.Name))
		if i < len(m.Artists)-1 {
			join := strings.TrimSpace(a.Join)
			if join == "" || join == "," {
				b.WriteString(", ")
			} else {
				b.WriteString(" " + join + " ")
			}
		}
	}
	return b.String()
}

// Community holds community statistics for a version.
type Community struct {
	InWantlist   int `json:"in_wantlist"`
	InCollection int `json:"in_collection"`
}

// VersionStats wraps Community the way the versions endpoint nests it.
type VersionStats struct {
	Community Community `json:"community"`
}

// Version is one pressing of a master.
type Version struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Label        string        `json:"label"`
	Country      string        `json:"country"`
	CatalogNo    string        `json:"catno"`
	Released     string        `json:"released"`
	Format       string        `json:"format"`
	MajorFormats []string      `json:"major_formats"`
	Thumb        string        `json:"thumb"`
	Stats        *VersionStats `json:"stats,omitempty"`
}

// VersionPage is one page of versions.
type VersionPage struct {
	Pagination Pagination `json:"pagination"`
	Versions   []Version  `json:"versions"`
}

// Match is the selected master candidate for an identification guess.
type Match struct {
	ID          int64    `json:"id"`
	MasterID    int64    `json:"masterId"`
	Artist      string   `json:"artist"`
	AlbumTitle  string   `json:"albumTitle"`
	Year        string   `json:"year,omitempty"`
	CoverArtURL string   `json:"coverArtUrl,omitempty"`
	Genre       []string `json:"genre,omitempty"`
	Score       float64  `json:"score"`
}

// ParseYear extracts a four digit year from Discogs year strings such as
// "1973", "1973-03-01", or "Mar 1973". Zero and unparseable values report
// false.
func ParseYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	for i := 0; i+4 <= len(value); i++ {
		chunk := value[i : i+4]
		if !isDigits(chunk) {
			continue
		}
		if i+4 < len(value) && isDigit(value[i+4]) {
			continue
		}
		if i > 0 && isDigit(value[i-1]) {
			continue
		}
		year, err := strconv.Atoi(chunk)
		if err != nil || year == 0 {
			return 0, false
		}
		return year, true
	}
	return 0, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
