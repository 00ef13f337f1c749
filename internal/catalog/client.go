package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/config"
	"github.com/movieontip/movieontip/internal/metrics"
	"github.com/movieontip/movieontip/internal/validation"
)

var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrAPIError        = errors.New("catalog API error")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidID       = errors.New("invalid movie id")
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidCategory reports whether name can be used as a REST path segment.
func ValidCategory(name string) bool {
	return categoryPattern.MatchString(name)
}

// Client talks to the REST catalog backend. It never retries or caches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg config.BackendConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns every movie of a category.
// GET /<category>
func (c *Client) List(ctx context.Context, category string) ([]Movie, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	var movies []Movie
	if err := c.doRequest(ctx, "list", http.MethodGet, "/"+category, nil, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Get returns one movie by id.
// GET /<category>/<id>
func (c *Client) Get(ctx context.Context, category, id string) (*Movie, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if id == "" {
		return nil, ErrInvalidID
	}

	var movie Movie
	path := "/" + category + "/" + url.PathEscape(id)
	if err := c.doRequest(ctx, "get", http.MethodGet, path, nil, nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByTitleYear returns the movies of a category matching title and year
// exactly. The backend is expected to return zero or one match.
// GET /<category>?title=<t>&year=<y>
func (c *Client) FindByTitleYear(ctx context.Context, category, title, year string) ([]Movie, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	params := url.Values{}
	params.Set("title", title)
	params.Set("year", year)

	var movies []Movie
	if err := c.doRequest(ctx, "find", http.MethodGet, "/"+category, params, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Search returns the movies of a category whose title contains text.
// Matching is done by the backend.
// GET /<category>?title_like=<text>
func (c *Client) Search(ctx context.Context, category, text string) ([]Movie, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	params := url.Values{}
	params.Set("title_like", text)

	var movies []Movie
	if err := c.doRequest(ctx, "search", http.MethodGet, "/"+category, params, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// AddFavourite stores a copy of movie in the favourites category and
// returns the created record with its server-assigned id.
// POST /favourite
func (c *Client) AddFavourite(ctx context.Context, movie Movie) (*Movie, error) {
	payload := movie.WithoutID()
	if err := validation.Struct(payload); err != nil {
		return nil, err
	}

	var created Movie
	if err := c.doRequest(ctx, "add_favourite", http.MethodPost, "/"+FavouritesCategory, nil, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteFavourite removes a favourite by id.
// DELETE /favourite/<id>
func (c *Client) DeleteFavourite(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	path := "/" + FavouritesCategory + "/" + url.PathEscape(id)
	return c.doRequest(ctx, "delete_favourite", http.MethodDelete, path, nil, nil, nil)
}

// Categories returns the category names known to the backend, sorted.
// GET /db
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var db map[string]json.RawMessage
	if err := c.doRequest(ctx, "categories", http.MethodGet, "/db", nil, nil, &db); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(db))
	for name := range db {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Ping verifies the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Categories(ctx)
	return err
}

func (c *Client) doRequest(ctx context.Context, op, method, path string, params url.Values, body, result any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordBackendRequest(op, time.Since(start), err)
	}()

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	var reader io.Reader
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("failed to encode request: %w", merr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("catalog API error")

		if resp.StatusCode == http.StatusNotFound {
			return ErrMovieNotFound
		}
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Dur("took", time.Since(start)).Msg("catalog request")
	return nil
}
