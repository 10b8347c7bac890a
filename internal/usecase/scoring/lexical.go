package scoring

import (
	"strings"
	"unicode"
)

// saturationWeight is the accumulated term weight at which the lexical score
// reaches 1.0. Three primary-term hits (or equivalent) count as maximal
// domain signal.
const saturationWeight = 3.0

// minTokenLen filters out articles, prepositions and similar glue words.
const minTokenLen = 3

// stopwords never carry domain signal even when they appear in a phrase.
var stopwords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "from": {},
	"into": {}, "about": {}, "what": {}, "how": {}, "are": {},
	"was": {}, "this": {}, "that": {}, "its": {}, "their": {},
}

// LexicalMatcher scores domain relevance by weighted keyword overlap between
// the query and the phrase table. It is a pure function of the query text:
// deterministic, bounded to [0,1], and monotone in the number of distinct
// on-domain terms the query contains.
type LexicalMatcher struct {
	termWeights map[string]float64
}

// NewLexicalMatcher builds a matcher from a phrase table. Phrase tokens are
// weighted by tier; when a token appears in both tiers the primary weight wins.
func NewLexicalMatcher(table PhraseTable) *LexicalMatcher {
	weights := make(map[string]float64)
	for _, p := range table.Phrases() {
		for _, tok := range tokenize(p.Text) {
			if w, ok := weights[tok]; !ok || p.Weight > w {
				weights[tok] = p.Weight
			}
		}
	}
	return &LexicalMatcher{termWeights: weights}
}

// Match returns the domain relevance of the query in [0,1].
func (m *LexicalMatcher) Match(query string) float64 {
	var total float64
	for tok := range tokenSet(query) {
		total += m.termWeights[tok]
	}
	if total >= saturationWeight {
		return 1.0
	}
	return total / saturationWeight
}

// tokenize lowercases and splits on non-letter/digit runs, dropping short tokens.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < minTokenLen {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// tokenSet returns the distinct tokens of s.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}
