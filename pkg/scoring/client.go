// Package scoring provides a client for the external lead classification
// webhook. The classifier scores each lead of a batch against an avatar
// spec; only the request/response contract lives here.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

// Client defines the scoring webhook operations.
type Client interface {
	// Classify submits one batch for scoring and returns the parsed
	// response. The batch is sent in a single request; non-2xx responses
	// are transport errors. Classify never retries: the caller records
	// the terminal outcome either way.
	Classify(ctx context.Context, req *BatchRequest) (*BatchResponse, error)
}

// BatchLead is the wire shape of one lead in the scoring payload.
type BatchLead struct {
	ID            string   `json:"id"`
	Emails        []string `json:"emails"`
	Phones        []string `json:"phones"`
	FullName      string   `json:"full_name"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	CompanyDomain string   `json:"company_domain"`
	LinkedinURL   string   `json:"linkedin_url"`
	SourceSlug    string   `json:"source_slug"`
	Country       string   `json:"country"`
	State         string   `json:"state"`
	City          string   `json:"city"`
}

// BatchRequest is the scoring webhook request body.
type BatchRequest struct {
	Avatar    model.AvatarSpec `json:"avatar"`
	AvatarID  string           `json:"avatar_id"`
	BatchID   string           `json:"batch_id"`
	BatchSize int              `json:"batch_size"`
	Leads     []BatchLead      `json:"leads"`
}

// BatchResponse is the parsed webhook response.
type BatchResponse struct {
	Summary *ResponseSummary `json:"summary"`
}

// ResponseSummary carries the classifier's aggregate counts.
type ResponseSummary struct {
	AcceptCount  int     `json:"accept_count"`
	ReviewCount  int     `json:"review_count"`
	RejectCount  int     `json:"reject_count"`
	AverageScore float64 `json:"average_score"`
}

// Option configures the scoring client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTimeout overrides the request timeout. Classification of a large
// batch is slow, so the default is generous, but never unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.http.Timeout = d }
}

type httpClient struct {
	webhookURL string
	http       *http.Client
}

// NewClient creates a scoring webhook client.
func NewClient(webhookURL string, opts ...Option) Client {
	c := &httpClient{
		webhookURL: webhookURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Classify(ctx context.Context, req *BatchRequest) (*BatchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "scoring: marshal batch")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "scoring: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransportError("scoring: classify", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scoring: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resilience.NewTransportError("scoring: classify", resp.StatusCode,
			eris.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 512)))
	}

	var result BatchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, resilience.NewDataError("unparseable classifier response: " + err.Error())
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
