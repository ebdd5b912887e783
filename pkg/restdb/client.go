// Package restdb provides a client for the dashboard's hosted row store,
// which speaks a PostgREST-style HTTP API: one endpoint per table, filters
// in the query string, JSON rows in and out.
package restdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/mazirhxxx/listlab/internal/resilience"
)

// Client defines the row store operations the engine uses.
type Client interface {
	// Select fetches all rows of table matching the filters into dest,
	// which must be a pointer to a slice.
	Select(ctx context.Context, table string, filters map[string]string, dest any) error
	// Insert creates one row and decodes the server's representation
	// (including its assigned id) into dest when dest is non-nil.
	Insert(ctx context.Context, table string, row any, dest any) error
	// Update patches the row with the given id. A missing row yields a
	// NotFoundError.
	Update(ctx context.Context, table, id string, fields map[string]any) error
	// Delete removes the rows with the given ids. Missing ids are ignored.
	Delete(ctx context.Context, table string, ids []string) error
}

// Option configures the restdb client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithMutationRate throttles writes to at most perSec requests per second.
// Reads are not limited.
func WithMutationRate(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a row store client for the given base URL and API key.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Select(ctx context.Context, table string, filters map[string]string, dest any) error {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, "eq."+v)
	}

	// Reads retry on transient failures; every attempt is logged.
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("restdb", "select "+table)

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, table, q.Encode(), nil)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return eris.Wrapf(err, "restdb: decode %s rows", table)
	}
	return nil
}

func (c *httpClient) Insert(ctx context.Context, table string, row any, dest any) error {
	if err := c.waitMutation(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return eris.Wrapf(err, "restdb: marshal %s row", table)
	}

	body, err := c.do(ctx, http.MethodPost, table, "", payload)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}

	// The store returns the created rows as an array.
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return eris.Errorf("restdb: insert into %s returned no representation", table)
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return eris.Wrapf(err, "restdb: decode created %s row", table)
	}
	return nil
}

func (c *httpClient) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if err := c.waitMutation(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return eris.Wrapf(err, "restdb: marshal %s fields", table)
	}

	body, err := c.do(ctx, http.MethodPatch, table, "id=eq."+url.QueryEscape(id), payload)
	if err != nil {
		return err
	}

	// An empty representation means the filter matched nothing.
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err == nil && len(rows) == 0 {
		return resilience.NewNotFoundError(table, id)
	}
	return nil
}

func (c *httpClient) Delete(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.waitMutation(ctx); err != nil {
		return err
	}

	quoted := ""
	for i, id := range ids {
		if i > 0 {
			quoted += ","
		}
		quoted += url.QueryEscape(id)
	}
	_, err := c.do(ctx, http.MethodDelete, table, "id=in.("+quoted+")", nil)
	return err
}

func (c *httpClient) waitMutation(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "restdb: rate limit wait")
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, method, table, rawQuery string, payload []byte) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, table)
	if rawQuery != "" {
		reqURL += "?" + rawQuery
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, eris.Wrap(err, "restdb: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Ask the store to echo mutated rows so callers can detect no-matches.
	if method == http.MethodPatch || method == http.MethodPost {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransportError("restdb: "+method+" "+table, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "restdb: read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, resilience.NewNotFoundError(table, rawQuery)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Body is logged by callers, never surfaced to users.
		return nil, resilience.NewTransportError("restdb: "+method+" "+table, resp.StatusCode,
			eris.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 512)))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
