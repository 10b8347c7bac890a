// Package domain holds the core retrieval types shared across layers.
package domain

import "time"

// Origin tags where a candidate came from.
type Origin string

const (
	// OriginLocal marks candidates retrieved from the knowledge base.
	OriginLocal Origin = "local"
	// OriginWeb marks candidates retrieved from live external search.
	OriginWeb Origin = "web"
)

// Candidate is one retrieved unit of evidence.
type Candidate struct {
	Content        string
	Title          string
	SourceLabel    string
	Origin         Origin
	URL            string
	RelevanceScore float64
	RetrievedAt    time.Time
}
