package webcache

import (
	"time"

	"github.com/keplerlabs/kepler/internal/domain"
)

// entryRow is the JSON-serializable cache payload.
type entryRow struct {
	Results  []candidateRow `json:"results"`
	CachedAt time.Time      `json:"cached_at"`
}

// candidateRow is the JSON-serializable representation of a candidate.
type candidateRow struct {
	Content        string    `json:"content"`
	Title          string    `json:"title"`
	SourceLabel    string    `json:"source_label"`
	Origin         string    `json:"origin"`
	URL            string    `json:"url,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

func candidatesToRows(candidates []domain.Candidate) []candidateRow {
	rows := make([]candidateRow, len(candidates))
	for i, c := range candidates {
		rows[i] = candidateRow{
			Content:        c.Content,
			Title:          c.Title,
			SourceLabel:    c.SourceLabel,
			Origin:         string(c.Origin),
			URL:            c.URL,
			RelevanceScore: c.RelevanceScore,
			RetrievedAt:    c.RetrievedAt,
		}
	}
	return rows
}

func candidatesFromRows(rows []candidateRow) []domain.Candidate {
	candidates := make([]domain.Candidate, len(rows))
	for i, r := range rows {
		candidates[i] = domain.Candidate{
			Content:        r.Content,
			Title:          r.Title,
			SourceLabel:    r.SourceLabel,
			Origin:         domain.Origin(r.Origin),
			URL:            r.URL,
			RelevanceScore: r.RelevanceScore,
			RetrievedAt:    r.RetrievedAt,
		}
	}
	return candidates
}
