package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
)

// searchHit is one row scraped from the results page.
type searchHit struct {
	title   string
	url     string
	snippet string
}

// skipDomains are fetched-content hosts that only serve login walls.
var skipDomains = []string{"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com"}

// minSnippetLen below which a snippet is useless as fallback content.
const minSnippetLen = 20

// minContentLen below which extracted page content is discarded in favor of
// the snippet.
const minContentLen = 50

// scrape issues a general search request against the HTML endpoint and
// extracts readable content from up to maxResults result pages. Per-URL
// failures are skipped, never propagated.
func (c *Client) scrape(ctx context.Context, query string, maxResults int) ([]domain.Candidate, error) {
	params := url.Values{"q": {query}}
	body, err := c.get(ctx, c.cfg.HTMLURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	hits, err := parseResultsPage(body, maxResults)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		cand, ok := c.fetchHit(ctx, query, hit)
		if !ok {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// fetchHit turns one search hit into a candidate: fetch the page, extract its
// main content, fall back to the snippet when extraction yields too little.
func (c *Client) fetchHit(ctx context.Context, query string, hit searchHit) (domain.Candidate, bool) {
	content := ""
	if hit.url != "" && !skippedDomain(hit.url) {
		if err := c.limiter.Wait(ctx, providerName); err == nil {
			content = c.extractFromURL(ctx, hit.url)
		}
	}

	if len(content) < minContentLen {
		if len(hit.snippet) < minSnippetLen {
			return domain.Candidate{}, false
		}
		content = hit.snippet
	}

	return domain.Candidate{
		Content:        content,
		Title:          hit.title,
		SourceLabel:    "web_search",
		Origin:         domain.OriginWeb,
		URL:            hit.url,
		RelevanceScore: scoreOverlap(query, hit.title+" "+content),
		RetrievedAt:    time.Now().UTC(),
	}, true
}

// extractFromURL fetches a page and extracts its readable content. Any
// failure yields an empty string.
func (c *Client) extractFromURL(ctx context.Context, pageURL string) string {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		c.logger.Debug("Page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("Page parse failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	return extractReadable(doc, c.cfg.MaxContentChars)
}

// parseResultsPage extracts result rows from the search provider's HTML page.
func parseResultsPage(body []byte, maxResults int) ([]searchHit, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var hits []searchHit
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(s.Find("a.result__snippet").First().Text())

		href = cleanRedirectURL(href)
		if title == "" || href == "" || len(title) <= 5 {
			return true
		}

		hits = append(hits, searchHit{title: title, url: href, snippet: snippet})
		return len(hits) < maxResults
	})

	return hits, nil
}

// cleanRedirectURL unwraps the provider's /l/?uddg=<target> redirect links.
func cleanRedirectURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func skippedDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range skipDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// scoreOverlap scores text against the query as the fraction of distinct
// query terms it contains, bounded to [0,1].
func scoreOverlap(query, text string) float64 {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func queryTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?\"'")
		if len(f) < 3 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
