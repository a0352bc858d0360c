package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"teko/internal/services"
)

var pngImage = []byte("\x89PNG\r\n\x1a\nfake-image-body")

func replyWith(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestIdentifySendsImageAndParsesGuess(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		replyWith(t, `{"artist":"Pink Floyd","albumTitle":"The Dark Side of the Moon"}`)(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	guess, err := client.Identify(context.Background(), pngImage, "")
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if guess.ArtistOrEmpty() != "Pink Floyd" || guess.AlbumTitleOrEmpty() != "The Dark Side of the Moon" {
		t.Fatalf("unexpected guess: %+v", guess)
	}

	encoded, _ := json.Marshal(captured)
	if !strings.Contains(string(encoded), "data:image/png;base64,") {
		t.Fatalf("expected inline png data url in request, got %s", encoded)
	}
	if captured["model"] != "demo" {
		t.Fatalf("expected model in request, got %v", captured["model"])
	}
}

func TestIdentifyNullFieldsAreValid(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "```json\n{\"artist\": null, \"albumTitle\": \"unknown\"}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	guess, err := client.Identify(context.Background(), pngImage, "image/png")
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if !guess.Empty() {
		t.Fatalf("expected empty guess, got %+v", guess)
	}
}

func TestIdentifyUnexpectedShapeIsUnprocessable(t *testing.T) {
	for _, content := range []string{
		`I think this is Abbey Road`,
		`{"artist": 42, "albumTitle": "x"}`,
	} {
		server := httptest.NewServer(replyWith(t, content))
		client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"}, WithRetryMaxAttempts(1))
		_, err := client.Identify(context.Background(), pngImage, "image/png")
		server.Close()
		if !errors.Is(err, services.ErrUnprocessable) {
			t.Fatalf("content %q: expected ErrUnprocessable, got %v", content, err)
		}
	}
}

func TestIdentifyMissingKeysAreNull(t *testing.T) {
	cases := []struct {
		content    string
		artist     string
		albumTitle string
	}{
		{content: `{"artist":"Pink Floyd"}`, artist: "Pink Floyd"},
		{content: `{"album":"Tago Mago"}`, albumTitle: "Tago Mago"},
		{content: `{}`},
		{content: `{"band": "Can"}`},
	}
	for _, tc := range cases {
		server := httptest.NewServer(replyWith(t, tc.content))
		client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"}, WithRetryMaxAttempts(1))
		guess, err := client.Identify(context.Background(), pngImage, "image/png")
		server.Close()
		if err != nil {
			t.Fatalf("content %q: Identify returned error: %v", tc.content, err)
		}
		if guess.ArtistOrEmpty() != tc.artist || guess.AlbumTitleOrEmpty() != tc.albumTitle {
			t.Fatalf("content %q: unexpected guess %+v", tc.content, guess)
		}
		if tc.artist == "" && guess.Artist != nil {
			t.Fatalf("content %q: expected nil artist", tc.content)
		}
		if tc.albumTitle == "" && guess.AlbumTitle != nil {
			t.Fatalf("content %q: expected nil album title", tc.content)
		}
	}
}

func TestIdentifyMalformedSuccessBodyIsUnprocessable(t *testing.T) {
	for _, body := range []string{
		`<html>gateway page</html>`,
		`{"error":{"message":"upstream provider rejected the request"}}`,
	} {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(body))
		}))
		client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"},
			WithRetryMaxAttempts(3), WithSleeper(func(time.Duration) {}))
		_, err := client.Identify(context.Background(), pngImage, "image/png")
		server.Close()
		if !errors.Is(err, services.ErrUnprocessable) {
			t.Fatalf("body %q: expected ErrUnprocessable, got %v", body, err)
		}
		if errors.Is(err, services.ErrTransient) {
			t.Fatalf("body %q: must not be classified transient", body)
		}
		if calls.Load() != 1 {
			t.Fatalf("body %q: expected no retries, got %d calls", body, calls.Load())
		}
	}
}

func TestIdentifyUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	_, err := client.Identify(context.Background(), pngImage, "image/png")
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	missing := NewClient(Config{BaseURL: server.URL})
	if _, err := missing.Identify(context.Background(), pngImage, "image/png"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for missing key, got %v", err)
	}
}

func TestIdentifyRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		replyWith(t, `{"artist":"Can","albumTitle":"Future Days"}`)(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	guess, err := client.Identify(context.Background(), pngImage, "image/png")
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if guess.ArtistOrEmpty() != "Can" {
		t.Fatalf("unexpected guess %+v", guess)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected Retry-After honoured, got %v", slept)
	}
}

func TestIdentifyServerErrorIsTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(3), WithSleeper(func(time.Duration) {}))
	_, err := client.Identify(context.Background(), pngImage, "image/png")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 3*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, expected)
		}
	}
}

func TestDecodeJSONHandlesProse(t *testing.T) {
	var out map[string]any
	if err := DecodeJSON("Sure! {\"artist\":\"Can\"} hope this helps", &out); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if out["artist"] != "Can" {
		t.Fatalf("unexpected decode result %v", out)
	}
	if err := DecodeJSON("  ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
