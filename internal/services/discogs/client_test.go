package discogs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"teko/internal/services"
	"teko/internal/services/discogs"
)

func newTestClient(t *testing.T, handler http.Handler) *discogs.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := discogs.New("tok", server.URL, discogs.WithRequestsPerMinute(6000), discogs.WithUserAgent("Teko/test"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresToken(t *testing.T) {
	_, err := discogs.New(" ", "https://example.com")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchMastersSendsAuthAndQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/database/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Discogs token=tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "Teko/test" {
			t.Errorf("unexpected user agent %q", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "dark side" || q.Get("type") != "master" || q.Get("page") != "2" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"pagination":{"page":2,"pages":3},"results":[{"id":10362,"type":"master","title":"Pink Floyd - The Dark Side Of The Moon","year":"1973"}]}`))
	}))

	resp, err := client.SearchMasters(context.Background(), "dark side", 2)
	if err != nil {
		t.Fatalf("SearchMasters returned error: %v", err)
	}
	if resp.Pagination.Pages != 3 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	artist, album := resp.Results[0].SplitTitle()
	if artist != "Pink Floyd" || album != "The Dark Side Of The Moon" {
		t.Fatalf("unexpected split: %q / %q", artist, album)
	}
}

func TestSearchMastersEmptyQuery(t *testing.T) {
	client, err := discogs.New("tok", "https://example.com")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMasters(context.Background(), "  ", 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, services.ErrUnauthorized},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusBadGateway, services.ErrTransient},
	}
	for _, tc := range cases {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := client.ListVersions(context.Background(), 1, 1)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestListVersions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/masters/10362/versions" || r.URL.Query().Get("page") != "1" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"pagination":{"page":1,"pages":12},"versions":[
			{"id":1873013,"title":"The Dark Side Of The Moon","label":"Harvest","country":"UK","catno":"SHVL 804","released":"1973","thumb":"https://img/t.jpg","stats":{"community":{"in_wantlist":10,"in_collection":20}}}
		]}`))
	}))

	page, err := client.ListVersions(context.Background(), 10362, 0)
	if err != nil {
		t.Fatalf("ListVersions returned error: %v", err)
	}
	if page.Pagination.Pages != 12 || len(page.Versions) != 1 {
		t.Fatalf("unexpected page: %#v", page)
	}
	v := page.Versions[0]
	if v.CatalogNo != "SHVL 804" || v.Stats == nil || v.Stats.Community.InCollection != 20 {
		t.Fatalf("unexpected version: %#v", v)
	}
	if _, err := client.ListVersions(context.Background(), 0, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero id, got %v", err)
	}
}

func TestMasterDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"title":"Bookends","year":1968,"artists":[{"name":"Simon","join":"&"},{"name":"Garfunkel"}],"genres":["Rock","Folk"]}`))
	}))
	master, err := client.MasterDetails(context.Background(), 5)
	if err != nil {
		t.Fatalf("MasterDetails returned error: %v", err)
	}
	if master.ArtistName() != "Simon & Garfunkel" || master.Year != 1968 {
		t.Fatalf("unexpected master: %#v", master)
	}
}

func TestMatchMasterSkipsNetworkForBlankGuess(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	match, err := client.MatchMaster(context.Background(), "", " ")
	if err != nil || match != nil {
		t.Fatalf("expected nil match and nil error, got %#v %v", match, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
}

func TestMatchMasterPicksConfidentCandidate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("artist") != "Pink Floyd" || q.Get("release_title") != "Dark Side of the Moon" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id":1,"type":"master","title":"Pink Floyd - Dark Side Of The Moon Live","year":"2023"},
			{"id":10362,"master_id":10362,"type":"master","title":"Pink Floyd - The Dark Side Of The Moon","year":"1973","cover_image":"https://img/c.jpg","genre":["Rock"]}
		]}`))
	}))

	match, err := client.MatchMaster(context.Background(), "Pink Floyd", "Dark Side of the Moon")
	if err != nil {
		t.Fatalf("MatchMaster returned error: %v", err)
	}
	if match == nil || match.MasterID != 10362 {
		t.Fatalf("expected master 10362, got %#v", match)
	}
	if match.Year != "1973" || match.CoverArtURL != "https://img/c.jpg" || len(match.Genre) != 1 {
		t.Fatalf("unexpected match fields: %#v", match)
	}
}

func TestMatchMasterFallsBackToFreeText(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("q") == "" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":7,"type":"master","title":"Nirvana (2) - Nevermind","year":"1991"}]}`))
	}))

	match, err := client.MatchMaster(context.Background(), "Nirvana", "Nevermind")
	if err != nil {
		t.Fatalf("MatchMaster returned error: %v", err)
	}
	if match == nil || match.Artist != "Nirvana" {
		t.Fatalf("expected disambiguation suffix stripped, got %#v", match)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected field search then free text, got %d calls", calls.Load())
	}
}

func TestBestMatchRejectsWeakCandidates(t *testing.T) {
	results := []discogs.SearchResult{
		{ID: 1, Type: "master", Title: "Kraftwerk - Autobahn"},
		{ID: 2, Type: "release", Title: "Pink Floyd - Animals"},
	}
	if match := discogs.BestMatch("Pink Floyd", "Animals", results, 0.85); match != nil {
		t.Fatalf("expected no match, got %#v", match)
	}
}

func TestBestMatchRejectsTiedMasters(t *testing.T) {
	results := []discogs.SearchResult{
		{ID: 11, Type: "master", Title: "Burial - Untrue"},
		{ID: 12, Type: "master", Title: "Burial - Untrue"},
	}
	if match := discogs.BestMatch("Burial", "Untrue", results, 0.85); match != nil {
		t.Fatalf("expected ambiguous tie to yield no match, got %#v", match)
	}

	repeated := []discogs.SearchResult{
		{ID: 21, MasterID: 20, Type: "master", Title: "Can - Tago Mago"},
		{ID: 22, MasterID: 20, Type: "master", Title: "Can - Tago Mago"},
	}
	match := discogs.BestMatch("Can", "Tago Mago", repeated, 0.85)
	if match == nil || match.MasterID != 20 || match.ID != 21 {
		t.Fatalf("expected first entry for a repeated master, got %#v", match)
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1973", 1973, true},
		{"1973-03-01", 1973, true},
		{"Mar 1973", 1973, true},
		{"0", 0, false},
		{"", 0, false},
		{"12345", 0, false},
	}
	for _, tc := range cases {
		got, ok := discogs.ParseYear(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseYear(%q) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
