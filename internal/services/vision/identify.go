package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"teko/internal/services"
)

const identifyPrompt = `You identify vinyl records from photos of their sleeves.
Reply with a single JSON object and nothing else:
{"artist": "<artist name or null>", "albumTitle": "<album title or null>"}
Use null for anything you cannot read or infer with confidence. Do not guess
from the artwork style alone.`

// Guess is the model's reading of a sleeve. Either field may be nil.
type Guess struct {
	Artist     *string `json:"artist"`
	AlbumTitle *string `json:"albumTitle"`
}

// ArtistOrEmpty returns the artist, or "" when unknown.
func (g Guess) ArtistOrEmpty() string {
	if g.Artist == nil {
		return ""
	}
	return *g.Artist
}

// AlbumTitleOrEmpty returns the album title, or "" when unknown.
func (g Guess) AlbumTitleOrEmpty() string {
	if g.AlbumTitle == nil {
		return ""
	}
	return *g.AlbumTitle
}

// Empty reports whether neither field was identified.
func (g Guess) Empty() bool {
	return g.Artist == nil && g.AlbumTitle == nil
}

// Identify sends image to the model and returns its guess. A guess with both
// fields nil is a valid result, not an error.
func (c *Client) Identify(ctx context.Context, image []byte, contentType string) (Guess, error) {
	if c.cfg.APIKey == "" {
		return Guess{}, services.Wrap(services.ErrUnauthorized, "identifying", "identify", "vision api key not configured", nil)
	}
	if len(image) == 0 {
		return Guess{}, services.Wrap(services.ErrValidation, "identifying", "identify", "image is empty", nil)
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: identifyPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Identify this record."},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL(image, contentType)}},
			}},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return Guess{}, classify(err)
	}

	var raw map[string]any
	if err := DecodeJSON(content, &raw); err != nil {
		return Guess{}, services.Wrap(services.ErrUnprocessable, "identifying", "decode guess", "model reply is not JSON", err)
	}
	guess, err := guessFromPayload(raw)
	if err != nil {
		return Guess{}, services.Wrap(services.ErrUnprocessable, "identifying", "decode guess", err.Error(), nil)
	}
	return guess, nil
}

func dataURL(image []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func classify(err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrUnauthorized, "identifying", "identify", "vision service rejected credentials", err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return services.Wrap(services.ErrUnprocessable, "identifying", "identify", "vision service refused the image", err)
		}
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return services.Wrap(services.ErrUnprocessable, "identifying", "identify", "vision service returned no content", err)
	}
	var malformed *malformedResponseError
	if errors.As(err, &malformed) {
		return services.Wrap(services.ErrUnprocessable, "identifying", "identify", "vision service returned an unreadable reply", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrTransient, "identifying", "identify", "vision request failed", err)
}

// guessFromPayload reads each field as a string or null. A missing key is the
// same as null. Placeholder strings such as "unknown" become nil.
func guessFromPayload(raw map[string]any) (Guess, error) {
	artist, err := optionalField(raw, "artist")
	if err != nil {
		return Guess{}, err
	}
	title, err := optionalField(raw, "albumTitle", "album_title", "album", "title")
	if err != nil {
		return Guess{}, err
	}
	return Guess{Artist: artist, AlbumTitle: title}, nil
}

func optionalField(raw map[string]any, keys ...string) (*string, error) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case nil:
			return nil, nil
		case string:
			trimmed := strings.TrimSpace(v)
			switch strings.ToLower(trimmed) {
			case "", "null", "unknown", "n/a", "none":
				return nil, nil
			}
			return &trimmed, nil
		default:
			return nil, fmt.Errorf("field %q has unexpected type %T", key, value)
		}
	}
	return nil, nil
}

// DecodeJSON decodes JSON from a model reply, tolerating code fences and prose
// around the object.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	sanitized := extractJSONObject(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(sanitized))
	}
	return nil
}

func extractJSONObject(content string) string {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimLeft(body[3:], " \t\r\n")
		if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
			body = body[4:]
		}
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		body = strings.TrimSpace(body)
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(body[start : end+1])
	}
	return body
}
