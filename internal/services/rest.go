// PostgREST-style HTTP implementation of [Store].
//
// Filter syntax based on https://postgrest.org/en/stable/references/api/tables_views.html
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"golang.org/x/time/rate"
)

// RESTStore implements [Store] against a PostgREST-compatible endpoint.
//
// Every request carries the project's anon key plus the session bearer token
// supplied by the token callback, and passes through a client-side rate
// limiter shared across collections.
type RESTStore struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      func() string
}

// NewRESTStore creates a RESTStore. A rps of 0 disables rate limiting and a
// nil token callback sends only the anon key.
func NewRESTStore(baseURL, anonKey string, client *http.Client, rps float64, token func() string) *RESTStore {
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &RESTStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: client,
		limiter:    limiter,
		token:      token,
	}
}

func (s *RESTStore) Songs() Collection[models.Song] {
	return &restCollection[models.Song]{store: s, table: "songs"}
}

func (s *RESTStore) Playlists() Collection[models.Playlist] {
	return &restCollection[models.Playlist]{store: s, table: "playlists"}
}

func (s *RESTStore) Memberships() Collection[models.Membership] {
	return &restCollection[models.Membership]{store: s, table: "playlist_songs"}
}

// do issues one rate-limited request and returns the response body and status.
func (s *RESTStore) do(ctx context.Context, method, path string, query url.Values, body []byte, prefer string) ([]byte, int, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter: %w", err)
		}
	}

	fullURL := s.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if s.anonKey != "" {
		req.Header.Set("apikey", s.anonKey)
	}
	if s.token != nil {
		if tok := s.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return data, resp.StatusCode, nil
}

// restCollection binds one table name to the shared RESTStore transport.
type restCollection[T any] struct {
	store *RESTStore
	table string
}

func (c *restCollection[T]) Select(ctx context.Context, filter map[string]any, order *Order) ([]T, error) {
	query := filterValues(filter)
	query.Set("select", "*")
	if order != nil {
		dir := "asc"
		if order.Descending {
			dir = "desc"
		}
		query.Set("order", order.Column+"."+dir)
	}

	data, status, err := c.store.do(ctx, http.MethodGet, "/"+c.table, query, nil, "")
	if err != nil {
		return nil, err
	}
	if err := statusError(status, data); err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", c.table, err)
	}
	return rows, nil
}

func (c *restCollection[T]) Insert(ctx context.Context, row T) (*T, error) {
	payload, err := json.Marshal([]T{row})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s row: %w", c.table, err)
	}

	data, status, err := c.store.do(ctx, http.MethodPost, "/"+c.table, nil, payload, "return=representation")
	if err != nil {
		return nil, err
	}
	if err := statusError(status, data); err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s insert response: %w", c.table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty insert response for %s", shared.ErrRemote, c.table)
	}
	return &rows[0], nil
}

func (c *restCollection[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s patch: %w", c.table, err)
	}

	query := url.Values{}
	query.Set("id", "eq."+id)

	data, status, err := c.store.do(ctx, http.MethodPatch, "/"+c.table, query, payload, "return=representation")
	if err != nil {
		return nil, err
	}
	if err := statusError(status, data); err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
		// Backend did not echo the updated row; caller falls back to the patch.
		return nil, nil
	}
	return &rows[0], nil
}

func (c *restCollection[T]) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	data, status, err := c.store.do(ctx, http.MethodDelete, "/"+c.table, filterValues(filter), nil, "return=representation")
	if err != nil {
		return 0, err
	}
	if err := statusError(status, data); err != nil {
		return 0, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode %s delete response: %w", c.table, err)
	}
	return int64(len(rows)), nil
}

// filterValues renders a filter map as PostgREST query parameters.
// Scalars become eq. matches, string slices become in.(...) matches.
func filterValues(filter map[string]any) url.Values {
	query := url.Values{}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, column := range keys {
		switch v := filter[column].(type) {
		case []string:
			query.Set(column, "in.("+strings.Join(v, ",")+")")
		default:
			query.Set(column, fmt.Sprintf("eq.%v", v))
		}
	}
	return query
}

// statusError maps HTTP failure statuses to the shared error taxonomy.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, strings.TrimSpace(string(body)))
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (status %d)", shared.ErrNotFound, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", shared.ErrNotAuthenticated, status)
	case status >= 400:
		return fmt.Errorf("%w: status %d: %s", shared.ErrRemote, status, strings.TrimSpace(string(body)))
	}
	return nil
}
