// Package combine merges candidate sets from local and external retrieval
// into one deduplicated, ranked evidence list.
package combine

import (
	"sort"
	"strings"

	"github.com/keplerlabs/kepler/internal/domain"
)

// identityPrefixLen bounds the normalized-content prefix used for duplicate
// detection; near-identical pages differ in trailing boilerplate, not leads.
const identityPrefixLen = 256

// Config holds combination settings.
type Config struct {
	// MaxResults truncates the ranked output.
	MaxResults int
	// ResultFloor is the minimum useful top score; below it the set is
	// flagged low-confidence.
	ResultFloor float64
}

// DefaultConfig returns the standard combination settings.
func DefaultConfig() Config {
	return Config{MaxResults: 5, ResultFloor: 0.3}
}

// Result is a combined, ranked candidate set. LowConfidence is an out-of-band
// marker: the list is still best-effort usable, but the caller should prefer
// an "insufficient evidence" response path.
type Result struct {
	Candidates    []domain.Candidate
	LowConfidence bool
}

// Combine merges the two sets: deduplicate by normalized content keeping the
// higher-scored duplicate, sort by score descending with a stable tie-break
// (local before web, then input order), and truncate. Deterministic and
// side-effect-free; idempotent under repeated application.
func Combine(local, web []domain.Candidate, cfg Config) Result {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}

	type ranked struct {
		cand  domain.Candidate
		order int
	}

	merged := make(map[string]ranked)
	order := 0
	for _, c := range append(append([]domain.Candidate{}, local...), web...) {
		key := contentIdentity(c.Content)
		if key == "" {
			continue
		}
		existing, ok := merged[key]
		if !ok || c.RelevanceScore > existing.cand.RelevanceScore {
			keep := ranked{cand: c, order: order}
			if ok {
				// Preserve the earlier position so ranking stays stable.
				keep.order = existing.order
			}
			merged[key] = keep
		}
		order++
	}

	out := make([]ranked, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.cand.RelevanceScore != b.cand.RelevanceScore {
			return a.cand.RelevanceScore > b.cand.RelevanceScore
		}
		if a.cand.Origin != b.cand.Origin {
			return a.cand.Origin == domain.OriginLocal
		}
		return a.order < b.order
	})

	if len(out) > cfg.MaxResults {
		out = out[:cfg.MaxResults]
	}

	candidates := make([]domain.Candidate, len(out))
	for i, r := range out {
		candidates[i] = r.cand
	}

	return Result{
		Candidates:    candidates,
		LowConfidence: len(candidates) == 0 || candidates[0].RelevanceScore < cfg.ResultFloor,
	}
}

// contentIdentity normalizes content for duplicate detection: lowercase,
// whitespace collapsed, bounded prefix.
func contentIdentity(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	if len(normalized) > identityPrefixLen {
		normalized = normalized[:identityPrefixLen]
	}
	return normalized
}
