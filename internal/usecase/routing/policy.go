// Package routing picks a retrieval strategy per query: answer from the local
// knowledge base, from external search, or from both.
package routing

import (
	"fmt"
	"math"

	"github.com/keplerlabs/kepler/internal/domain"
)

// Combined-confidence blend weights. Must sum to 1.
const (
	weightDomain   = 0.4
	weightQuality  = 0.4
	weightAdequacy = 0.2
)

// Thresholds are the configured decision cut-offs, all in (0,1) with
// Low < High.
type Thresholds struct {
	Low         float64
	High        float64
	DomainFloor float64
}

// DefaultThresholds returns the standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.6, High: 0.8, DomainFloor: 0.3}
}

// Inputs are the per-query signals the policy consumes.
type Inputs struct {
	DomainRelevance float64
	LocalQuality    float64
	CountAdequacy   float64
	LocalCount      int
}

// Decide maps scores to a retrieval strategy. It is pure and total: the same
// inputs always give the same decision, no input panics, and malformed scores
// (NaN, out of range) fail closed to web-only retrieval.
//
// Rules, first match wins: the domain floor is a hard pre-filter; the
// combined-confidence blend is only evaluated afterwards.
func Decide(in Inputs, th Thresholds) domain.ScoreBreakdown {
	if invalid(in.DomainRelevance) || invalid(in.LocalQuality) || invalid(in.CountAdequacy) {
		return domain.ScoreBreakdown{
			DomainRelevance: in.DomainRelevance,
			LocalQuality:    in.LocalQuality,
			Decision:        domain.DecisionWebOnly,
			Reason:          "invalid score inputs",
		}
	}

	quality := in.LocalQuality
	combined := weightDomain*in.DomainRelevance + weightQuality*quality + weightAdequacy*in.CountAdequacy
	if in.LocalCount == 0 {
		// Zero local candidates can never justify a local-only answer, no
		// matter how on-domain the query is: the confidence is zero outright.
		quality = 0
		combined = 0
	}

	breakdown := domain.ScoreBreakdown{
		DomainRelevance:    in.DomainRelevance,
		LocalQuality:       quality,
		CombinedConfidence: combined,
	}

	switch {
	case in.DomainRelevance < th.DomainFloor:
		breakdown.Decision = domain.DecisionWebOnly
		breakdown.Reason = fmt.Sprintf("outside domain (relevance %.3f < %.2f)", in.DomainRelevance, th.DomainFloor)
	case combined < th.Low:
		breakdown.Decision = domain.DecisionWebOnly
		breakdown.Reason = fmt.Sprintf("insufficient local confidence (%.2f < %.2f)", combined, th.Low)
	case combined > th.High:
		breakdown.Decision = domain.DecisionLocalOnly
		breakdown.Reason = fmt.Sprintf("high local confidence (%.2f > %.2f)", combined, th.High)
	default:
		breakdown.Decision = domain.DecisionHybrid
		breakdown.Reason = fmt.Sprintf("medium confidence (%.2f)", combined)
	}

	return breakdown
}

func invalid(x float64) bool {
	return math.IsNaN(x) || x < 0 || x > 1
}
