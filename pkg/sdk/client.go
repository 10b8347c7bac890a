// Package sdk is a typed HTTP client for the kepler resolution API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client calls the kepler HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kepler: api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Candidate is one evidence unit returned by Resolve.
type Candidate struct {
	Content        string    `json:"content"`
	Title          string    `json:"title,omitempty"`
	Source         string    `json:"source"`
	Origin         string    `json:"origin"`
	URL            string    `json:"url,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// Breakdown explains the routing decision for a query.
type Breakdown struct {
	DomainRelevance    float64 `json:"domain_relevance"`
	LocalQuality       float64 `json:"local_quality"`
	CombinedConfidence float64 `json:"combined_confidence"`
	Decision           string  `json:"decision"`
	Reason             string  `json:"reason"`
}

// Resolution is the outcome of one resolved query.
type Resolution struct {
	Candidates    []Candidate `json:"candidates"`
	Breakdown     Breakdown   `json:"breakdown"`
	LowConfidence bool        `json:"low_confidence"`
}

type resolveRequest struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

// Resolve routes a query through the retrieval orchestrator.
// maxResults <= 0 leaves the server default in effect.
func (c *Client) Resolve(ctx context.Context, query string, maxResults int) (Resolution, error) {
	reqBody := resolveRequest{Query: query}
	if maxResults > 0 {
		reqBody.MaxResults = &maxResults
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Resolution{}, fmt.Errorf("kepler: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/resolve", bytes.NewReader(payload))
	if err != nil {
		return Resolution{}, fmt.Errorf("kepler: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("kepler: resolve: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return Resolution{}, apiErr
	}

	var res Resolution
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Resolution{}, fmt.Errorf("kepler: decode response: %w", err)
	}
	return res, nil
}

// Health reports the server's component health checks.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("kepler: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kepler: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("kepler: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return body.Checks, fmt.Errorf("kepler: service %s", body.Status)
	}
	return body.Checks, nil
}
