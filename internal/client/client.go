// Package client is the dashboard's typed client for the procurement REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FallbackMessage is shown when the API gives no usable error message
const FallbackMessage = "Something went wrong. Please try again."

// APIError is a non-2xx answer from the API or a transport failure (Status 0)
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string // per-field validation messages on 422
	Err     error             // transport or read failure behind a fallback message
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports a 404 anywhere in err's chain
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf returns the HTTP status of an APIError, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf is the user-facing text for any error returned by the client
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// Page mirrors the paginated list body
type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// ListParams are the query parameters every list screen sends
type ListParams struct {
	Page      int
	PerPage   int
	Search    string
	SortBy    string
	SortOrder string
	Filters   map[string]string
}

// Values encodes the non-empty params
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.SortBy != "" {
		v.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sort_order", p.SortOrder)
	}
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if p.Filters[k] != "" {
			v.Set(k, p.Filters[k])
		}
	}
	return v
}

// Client talks to the API. It carries no credentials; see As.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Session is a Client bound to one user's access token
type Session struct {
	c     *Client
	token string
}

// As returns a session that authenticates every call with token
func (c *Client) As(token string) *Session {
	return &Session{c: c, token: token}
}

// do sends one request and decodes the envelope's data into out (when non-nil)
func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: FallbackMessage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: FallbackMessage, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(env.Message)
		if decodeErr != nil || msg == "" {
			msg = FallbackMessage
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Fields: env.Errors}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

func (s *Session) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return s.c.do(ctx, s.token, http.MethodGet, path, query, nil, out)
}

func (s *Session) send(ctx context.Context, method, path string, body, out interface{}) error {
	return s.c.do(ctx, s.token, method, path, nil, body, out)
}
