// Package pixabay is a small client for the Pixabay image search API.
package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/strrl/pixgrid/internal/gallery"
	"github.com/strrl/pixgrid/pkg/models"
)

const (
	DefaultBaseURL = "https://pixabay.com/api/"
	DefaultPerPage = 12

	// Pixabay accepts per_page values in this range
	minPerPage = 3
	maxPerPage = 200
)

// APIError is returned when the API answers with a non-2xx status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pixabay API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("pixabay API returned status %d: %s", e.StatusCode, e.Message)
}

// SearchParams are the query parameters for a single search request
type SearchParams struct {
	Query      string
	Page       int
	PerPage    int
	SafeSearch bool
}

// Client talks to the Pixabay API
type Client struct {
	apiKey     string
	baseURL    string
	perPage    int
	safeSearch bool
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another endpoint
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPerPage sets the page size used by Fetch
func WithPerPage(n int) Option {
	return func(c *Client) { c.perPage = n }
}

// WithSafeSearch restricts results to images suitable for all ages
func WithSafeSearch(on bool) Option {
	return func(c *Client) { c.safeSearch = on }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Pixabay client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		perPage:    DefaultPerPage,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search performs one search request
func (c *Client) Search(ctx context.Context, params SearchParams) (*models.SearchPage, error) {
	reqURL, err := c.searchURL(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var page models.SearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &page, nil
}

// Fetch implements gallery.Fetcher using the client's page size
func (c *Client) Fetch(ctx context.Context, query string, page int) (gallery.Page[models.Image], error) {
	res, err := c.Search(ctx, SearchParams{
		Query:      query,
		Page:       page,
		PerPage:    c.perPage,
		SafeSearch: c.safeSearch,
	})
	if err != nil {
		return gallery.Page[models.Image]{}, err
	}
	return gallery.Page[models.Image]{Hits: res.Hits, TotalHits: res.TotalHits}, nil
}

func (c *Client) searchURL(params SearchParams) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	perPage := params.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	perPage = min(max(perPage, minPerPage), maxPerPage)

	page := params.Page
	if page < 1 {
		page = 1
	}

	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("q", params.Query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("image_type", "photo")
	q.Set("orientation", "horizontal")
	q.Set("safesearch", strconv.FormatBool(params.SafeSearch))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
