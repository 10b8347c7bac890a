package websearch

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in priority order: dedicated article containers
// first, generic content ids last.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".content",
	".post-content",
	".entry-content",
	".article-body",
	".post-body",
	".story-body",
	"#content",
	"#main-content",
}

// boilerplateSelector matches page chrome that never carries article text.
const boilerplateSelector = "script, style, nav, footer, aside, header, form, noscript"

// minExtractedLen below which a selector hit is considered boilerplate and
// the paragraph fallback kicks in.
const minExtractedLen = 100

// extractReadable pulls the primary textual content out of a parsed page:
// strip chrome, try the prioritized content containers, fall back to joining
// paragraphs and headings, then bound the length at a sentence boundary.
func extractReadable(doc *goquery.Document, maxChars int) string {
	doc.Find(boilerplateSelector).Remove()

	var content string
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			content = collapseWhitespace(sel.Text())
			if len(content) >= minExtractedLen {
				break
			}
		}
	}

	if len(content) < minExtractedLen {
		var parts []string
		doc.Find("p, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		content = collapseWhitespace(strings.Join(parts, " "))
	}

	return truncateAtSentence(content, maxChars)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtSentence bounds s to maxChars, preferring to cut after the last
// full sentence inside the window. The cut never splits a multi-byte rune.
func truncateAtSentence(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	for maxChars > 0 && !utf8.RuneStart(s[maxChars]) {
		maxChars--
	}
	window := s[:maxChars]
	if idx := strings.LastIndexByte(window, '.'); idx > maxChars/2 {
		return window[:idx+1]
	}
	return window
}
