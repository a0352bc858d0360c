package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"teko/internal/services"
)

const (
	defaultBaseURL           = "https://api.discogs.com"
	defaultUserAgent         = "Teko/dev"
	defaultRequestsPerMinute = 60
	defaultMatchThreshold    = 0.85
	defaultPerPage           = 25
)

// Catalog defines the Discogs operations used by the pipeline and API.
type Catalog interface {
	SearchMasters(ctx context.Context, query string, page int) (*SearchResponse, error)
	MatchMaster(ctx context.Context, artist, albumTitle string) (*Match, error)
	ListVersions(ctx context.Context, masterID int64, page int) (*VersionPage, error)
	MasterDetails(ctx context.Context, masterID int64) (*Master, error)
}

// Client provides access to the Discogs database API.
type Client struct {
	token      string
	baseURL    string
	userAgent  string
	threshold  float64
	perPage    int
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent Discogs requires on every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithRequestsPerMinute sizes the client-side rate limiter.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = newLimiter(n)
		}
	}
}

// WithMatchThreshold sets the minimum similarity MatchMaster accepts.
func WithMatchThreshold(threshold float64) Option {
	return func(c *Client) {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	burst := max(perMinute/10, 1)
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// New creates a Discogs client. A personal access token is required.
func New(token, baseURL string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "discogs", "new client", "discogs token required", nil)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &Client{
		token:      token,
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		threshold:  defaultMatchThreshold,
		perPage:    defaultPerPage,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    newLimiter(defaultRequestsPerMinute),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMasters runs a free-text master search.
func (c *Client) SearchMasters(ctx context.Context, query string, page int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "discogs", "search masters", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "master")
	params.Set("page", strconv.Itoa(max(page, 1)))
	params.Set("per_page", strconv.Itoa(c.perPage))

	var payload SearchResponse
	if err := c.getJSON(ctx, "search masters", "/database/search", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) searchFields(ctx context.Context, artist, albumTitle string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("type", "master")
	params.Set("per_page", strconv.Itoa(c.perPage))
	if artist != "" {
		params.Set("artist", artist)
	}
	if albumTitle != "" {
		params.Set("release_title", albumTitle)
	}
	var payload SearchResponse
	if err := c.getJSON(ctx, "match master", "/database/search", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListVersions returns one page of the release versions of a master.
func (c *Client) ListVersions(ctx context.Context, masterID int64, page int) (*VersionPage, error) {
	if masterID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "discogs", "list versions", "master id must be positive", nil)
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(page, 1)))
	params.Set("per_page", strconv.Itoa(c.perPage))

	var payload VersionPage
	path := "/masters/" + strconv.FormatInt(masterID, 10) + "/versions"
	if err := c.getJSON(ctx, "list versions", path, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MasterDetails fetches a single master.
func (c *Client) MasterDetails(ctx context.Context, masterID int64) (*Master, error) {
	if masterID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "discogs", "master details", "master id must be positive", nil)
	}
	var payload Master
	path := "/masters/" + strconv.FormatInt(masterID, 10)
	if err := c.getJSON(ctx, "master details", path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse discogs url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discogs %s: rate limiter: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.discogs.v2.discogs+json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrTransient, "discogs", op, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return statusError(op, resp.StatusCode, latency, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrUnprocessable, "discogs", op, "decode response", err)
	}
	return nil
}

func statusError(op string, status int, latency time.Duration, body string) error {
	message := fmt.Sprintf("discogs returned %d (latency=%v)", status, latency)
	if body != "" {
		message += ": " + body
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrUnauthorized, "discogs", op, message, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "discogs", op, message, nil)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "discogs", op, message, nil)
	default:
		return services.Wrap(services.ErrUnprocessable, "discogs", op, message, nil)
	}
}
