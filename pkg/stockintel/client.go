// Package stockintel is a Go SDK for the stockintel REST API: company roster,
// daily price series, 52-week summaries and gainer/loser insights.
package stockintel

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

	"stockintel/internal/domain"
)

// Re-exported wire types.
type (
	Company      = domain.Company
	PricePoint   = domain.PricePoint
	Summary      = domain.Summary
	InsightEntry = domain.InsightEntry
	Volatility   = domain.Volatility
	Comparison   = domain.Comparison
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// ErrNotFound matches a StatusError carrying HTTP 404.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// StatusError (transport failure, timeout, decode error).
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Client talks to the stockintel REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a new API client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Health is the liveness document served at "/".
type Health struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs,omitempty"`
}

// Ping probes GET / and returns the liveness document.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// CompaniesResponse is the body of GET /companies.
type CompaniesResponse struct {
	Companies []Company `json:"companies"`
	Count     int       `json:"count"`
}

// Companies retrieves the full company roster.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var resp CompaniesResponse
	if err := c.get(ctx, "/companies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Companies, nil
}

// SeriesResponse is the body of GET /data/{symbol}.
type SeriesResponse struct {
	Symbol string       `json:"symbol"`
	Data   []PricePoint `json:"data"`
	Count  int          `json:"count"`
}

// Series retrieves the trailing days of price points for symbol,
// newest first as served by the backend.
func (c *Client) Series(ctx context.Context, symbol string, days int) ([]PricePoint, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var resp SeriesResponse
	if err := c.get(ctx, "/data/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Summary retrieves 52-week statistics for symbol.
func (c *Client) Summary(ctx context.Context, symbol string) (*Summary, error) {
	var s Summary
	if err := c.get(ctx, "/summary/"+url.PathEscape(symbol), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GainersResponse is the body of GET /insights/gainers.
type GainersResponse struct {
	Gainers []InsightEntry `json:"gainers"`
	Count   int            `json:"count"`
}

// LosersResponse is the body of GET /insights/losers.
type LosersResponse struct {
	Losers []InsightEntry `json:"losers"`
	Count  int            `json:"count"`
}

// Gainers retrieves up to limit top gainers.
func (c *Client) Gainers(ctx context.Context, limit int) ([]InsightEntry, error) {
	var resp GainersResponse
	if err := c.get(ctx, "/insights/gainers", limitQuery(limit), &resp); err != nil {
		return nil, err
	}
	return resp.Gainers, nil
}

// Losers retrieves up to limit top losers.
func (c *Client) Losers(ctx context.Context, limit int) ([]InsightEntry, error) {
	var resp LosersResponse
	if err := c.get(ctx, "/insights/losers", limitQuery(limit), &resp); err != nil {
		return nil, err
	}
	return resp.Losers, nil
}

// Volatility retrieves the volatility score for symbol.
func (c *Client) Volatility(ctx context.Context, symbol string) (*Volatility, error) {
	var v Volatility
	if err := c.get(ctx, "/insights/volatility/"+url.PathEscape(symbol), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Compare retrieves the performance comparison of two symbols.
func (c *Client) Compare(ctx context.Context, symbol1, symbol2 string) (*Comparison, error) {
	q := url.Values{}
	q.Set("symbol1", symbol1)
	q.Set("symbol2", symbol2)
	var cmp Comparison
	if err := c.get(ctx, "/compare", q, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// maxErrorBody caps how much of an error response is kept in a StatusError.
const maxErrorBody = 4 << 10

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: errorDetail(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// errorDetail prefers the API's {"detail": "..."} message over the raw body.
func errorDetail(body []byte) string {
	var d struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &d) == nil && d.Detail != "" {
		return d.Detail
	}
	return strings.TrimSpace(string(body))
}
