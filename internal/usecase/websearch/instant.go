package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keplerlabs/kepler/internal/domain"
)

// instantResponse is the structured instant-answer payload shape.
type instantResponse struct {
	Heading      string `json:"Heading"`
	AbstractText string `json:"AbstractText"`
	AbstractURL  string `json:"AbstractURL"`
	Answer       string `json:"Answer"`
	AnswerType   string `json:"AnswerType"`
}

// maxResponseBytes bounds response bodies read into memory.
const maxResponseBytes = 2 << 20

// tryInstant queries the structured instant-answer endpoint. A usable answer
// becomes a single candidate; anything else (no answer, network error,
// malformed body) returns nil.
func (c *Client) tryInstant(ctx context.Context, query string) ([]domain.Candidate, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"no_redirect":   {"1"},
		"skip_disambig": {"1"},
	}

	body, err := c.get(ctx, c.cfg.InstantURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp instantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode instant answer: %w", err)
	}

	content := strings.TrimSpace(resp.AbstractText)
	if content == "" {
		content = strings.TrimSpace(resp.Answer)
	}
	if content == "" {
		return nil, nil
	}

	title := resp.Heading
	if title == "" {
		title = query
	}

	return []domain.Candidate{{
		Content:        truncateAtSentence(content, c.cfg.MaxContentChars),
		Title:          title,
		SourceLabel:    "instant_answer",
		Origin:         domain.OriginWeb,
		URL:            resp.AbstractURL,
		RelevanceScore: scoreOverlap(query, title+" "+content),
		RetrievedAt:    time.Now().UTC(),
	}}, nil
}

// get issues a bounded GET request and returns the body for 2xx responses.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
