package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"teko/internal/api"
	"teko/internal/auth"
	"teko/internal/collection"
	"teko/internal/pipeline"
	"teko/internal/services"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
	"teko/internal/testsupport"
)

type stubIdentifier struct{ guess vision.Guess }

func (s stubIdentifier) Identify(context.Context, []byte, string) (vision.Guess, error) {
	return s.guess, nil
}

type stubCatalog struct {
	match *discogs.Match
}

func (s *stubCatalog) SearchMasters(_ context.Context, query string, page int) (*discogs.SearchResponse, error) {
	return &discogs.SearchResponse{
		Pagination: discogs.Pagination{Page: page, Pages: 1, Items: 1},
		Results:    []discogs.SearchResult{{ID: 10362, Type: "master", Title: "Pink Floyd - " + query}},
	}, nil
}

func (s *stubCatalog) MatchMaster(context.Context, string, string) (*discogs.Match, error) {
	return s.match, nil
}

func (s *stubCatalog) ListVersions(_ context.Context, masterID int64, page int) (*discogs.VersionPage, error) {
	if masterID == 404 {
		return nil, services.Wrap(services.ErrNotFound, "", "list versions", "master not found", nil)
	}
	return &discogs.VersionPage{
		Pagination: discogs.Pagination{Page: page, Pages: 1, Items: 1},
		Versions:   []discogs.Version{{ID: 1873013, Label: "Harvest", Country: "UK", CatalogNo: "SHVL 804", Released: "1973"}},
	}, nil
}

func (s *stubCatalog) MasterDetails(_ context.Context, masterID int64) (*discogs.Master, error) {
	return &discogs.Master{ID: masterID, Title: "The Dark Side Of The Moon", Year: 1973}, nil
}

type harness struct {
	server *httptest.Server
	store  *collection.Store
	reg    *pipeline.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := &stubCatalog{match: &discogs.Match{
		MasterID:   10362,
		Artist:     "Pink Floyd",
		AlbumTitle: "The Dark Side Of The Moon",
		Year:       "1973",
		Genre:      []string{"Rock"},
	}}
	artist, title := "Pink Floyd", "Dark Side of the Moon"
	registry := pipeline.NewRegistry(pipeline.Options{
		Identifier: stubIdentifier{guess: vision.Guess{Artist: &artist, AlbumTitle: &title}},
		Matcher:    catalog,
		Recorder:   store,
	})
	srv, err := api.New(api.Options{
		Store:    store,
		Catalog:  catalog,
		Registry: registry,
		Auth:     auth.NewStaticTokens(map[string]string{"test-token": "test-user", "other-token": "other-user"}),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{server: ts, store: store, reg: registry}
}

func (h *harness) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) doJSON(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return h.do(t, method, path, token, body, "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/health", "", nil, "")
	expectStatus(t, resp, http.StatusOK)
	health := decode[api.HealthResponse](t, resp)
	if health.Status != "ok" || health.Database != "ok" || health.Version != "test" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestRoutesRequireBearerToken(t *testing.T) {
	h := newHarness(t)
	expectStatus(t, h.do(t, http.MethodGet, "/api/records", "", nil, ""), http.StatusUnauthorized)
	resp := h.do(t, http.MethodGet, "/api/records", "wrong", nil, "")
	expectStatus(t, resp, http.StatusUnauthorized)
	if body := decode[api.ErrorResponse](t, resp); body.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestRecordLifecycle(t *testing.T) {
	h := newHarness(t)

	resp := h.doJSON(t, http.MethodPost, "/api/records", "test-token", map[string]any{"artist": "Can"})
	expectStatus(t, resp, http.StatusUnprocessableEntity)

	resp = h.doJSON(t, http.MethodPost, "/api/records", "test-token", map[string]any{"artist": "Can", "bogus": 1})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = h.doJSON(t, http.MethodPost, "/api/records", "test-token", map[string]any{
		"artist":      "Can",
		"albumTitle":  "Tago Mago",
		"releaseYear": 1971,
		"genre":       "Rock, Krautrock",
		"price":       24.5,
	})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[api.RecordResponse](t, resp).Record
	if created.ID == "" || created.OwnerID != "test-user" {
		t.Fatalf("unexpected record %+v", created)
	}

	resp = h.doJSON(t, http.MethodGet, "/api/records?sort=artist", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[api.RecordListResponse](t, resp); list.Count != 1 {
		t.Fatalf("expected 1 record, got %d", list.Count)
	}
	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/records?sort=price", "test-token", nil), http.StatusBadRequest)

	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/records/"+created.ID, "other-token", nil), http.StatusNotFound)

	resp = h.doJSON(t, http.MethodPut, "/api/records/"+created.ID, "test-token", map[string]any{
		"artist":     "Can",
		"albumTitle": "Tago Mago",
		"condition":  "VG+",
	})
	expectStatus(t, resp, http.StatusOK)
	if updated := decode[api.RecordResponse](t, resp).Record; updated.Condition != "VG+" {
		t.Fatalf("expected condition update, got %+v", updated)
	}

	resp = h.doJSON(t, http.MethodGet, "/api/stats", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if stats := decode[collection.Stats](t, resp); stats.TotalRecords != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	expectStatus(t, h.doJSON(t, http.MethodDelete, "/api/records/"+created.ID, "test-token", nil), http.StatusNoContent)
	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/records/"+created.ID, "test-token", nil), http.StatusNotFound)
}

func TestPipelineCaptureSavesRecord(t *testing.T) {
	h := newHarness(t)

	resp := h.doJSON(t, http.MethodPost, "/api/pipelines", "test-token", nil)
	expectStatus(t, resp, http.StatusCreated)
	opened := decode[api.PipelineResponse](t, resp)
	if opened.ID == "" || opened.State.Stage != pipeline.StageCapture {
		t.Fatalf("unexpected run %+v", opened)
	}

	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/pipelines/"+opened.ID, "other-token", nil), http.StatusNotFound)
	expectStatus(t, h.doJSON(t, http.MethodPost, "/api/pipelines/"+opened.ID+"/retry", "test-token", nil), http.StatusConflict)

	resp = h.do(t, http.MethodPost, "/api/pipelines/"+opened.ID+"/capture", "test-token", bytes.NewReader(testsupport.PNGBytes()), "image/png")
	expectStatus(t, resp, http.StatusOK)
	state := decode[api.PipelineResponse](t, resp).State
	if state.Stage != pipeline.StageSuccess || state.Record == nil {
		t.Fatalf("expected success, got %+v", state)
	}
	if state.Record.ReleaseLabel != "Harvest" || state.Record.OwnerID != "test-user" {
		t.Fatalf("unexpected record %+v", state.Record)
	}

	records, err := h.store.List(context.Background(), "test-user", collection.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected persisted record, got %d", len(records))
	}

	resp = h.doJSON(t, http.MethodDelete, "/api/pipelines/"+opened.ID, "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if closed := decode[api.PipelineResponse](t, resp).State; closed.Stage != pipeline.StageClosed {
		t.Fatalf("expected closed, got %s", closed.Stage)
	}
	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/pipelines/"+opened.ID, "test-token", nil), http.StatusNotFound)
	if h.reg.Len() != 0 {
		t.Fatalf("expected registry empty, got %d", h.reg.Len())
	}
}

func TestPipelineBadCaptureOffersRecovery(t *testing.T) {
	h := newHarness(t)
	opened := decode[api.PipelineResponse](t, h.doJSON(t, http.MethodPost, "/api/pipelines", "test-token", nil))

	resp := h.do(t, http.MethodPost, "/api/pipelines/"+opened.ID+"/capture", "test-token", strings.NewReader("not an image"), "text/plain")
	expectStatus(t, resp, http.StatusOK)
	state := decode[api.PipelineResponse](t, resp).State
	if state.Stage != pipeline.StageError || state.Failure == nil || len(state.Failure.Actions) != 2 {
		t.Fatalf("expected error with recovery actions, got %+v", state)
	}

	resp = h.doJSON(t, http.MethodPost, "/api/pipelines/"+opened.ID+"/manual", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if state = decode[api.PipelineResponse](t, resp).State; state.Stage != pipeline.StageManual {
		t.Fatalf("expected manual, got %s", state.Stage)
	}

	resp = h.doJSON(t, http.MethodPost, "/api/pipelines/"+opened.ID+"/manual/submit", "test-token", map[string]any{
		"artist":     "Broadcast",
		"albumTitle": "Tender Buttons",
	})
	expectStatus(t, resp, http.StatusOK)
	if state = decode[api.PipelineResponse](t, resp).State; state.Stage != pipeline.StageSuccess {
		t.Fatalf("expected success, got %+v", state)
	}
}

func TestDiscogsRoutes(t *testing.T) {
	h := newHarness(t)

	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/discogs/search", "test-token", nil), http.StatusBadRequest)

	resp := h.doJSON(t, http.MethodGet, "/api/discogs/search?q=meddle", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if search := decode[discogs.SearchResponse](t, resp); len(search.Results) != 1 {
		t.Fatalf("unexpected search %+v", search)
	}

	resp = h.doJSON(t, http.MethodGet, "/api/discogs/masters/10362/versions?page=2", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if page := decode[discogs.VersionPage](t, resp); page.Pagination.Page != 2 || len(page.Versions) != 1 {
		t.Fatalf("unexpected versions %+v", page)
	}

	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/discogs/masters/abc/versions", "test-token", nil), http.StatusBadRequest)
	expectStatus(t, h.doJSON(t, http.MethodGet, "/api/discogs/masters/404/versions", "test-token", nil), http.StatusNotFound)

	resp = h.doJSON(t, http.MethodGet, "/api/discogs/masters/10362", "test-token", nil)
	expectStatus(t, resp, http.StatusOK)
	if master := decode[discogs.Master](t, resp); master.ID != 10362 {
		t.Fatalf("unexpected master %+v", master)
	}
}
