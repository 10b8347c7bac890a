package routing

import (
	"math"
	"strings"
	"testing"

	"github.com/keplerlabs/kepler/internal/domain"
)

func TestDecide_OutsideDomain(t *testing.T) {
	// Outside the domain floor, local quality must not matter.
	for _, quality := range []float64{0, 0.5, 1.0} {
		in := Inputs{DomainRelevance: 0.05, LocalQuality: quality, CountAdequacy: 1, LocalCount: 5}
		got := Decide(in, DefaultThresholds())

		if got.Decision != domain.DecisionWebOnly {
			t.Errorf("quality=%v: decision = %s, want web_only", quality, got.Decision)
		}
		if !strings.Contains(got.Reason, "outside domain") {
			t.Errorf("quality=%v: reason = %q, want outside domain", quality, got.Reason)
		}
	}
}

func TestDecide_HighConfidence(t *testing.T) {
	in := Inputs{DomainRelevance: 0.9, LocalQuality: 0.9, CountAdequacy: 1, LocalCount: 5}
	got := Decide(in, DefaultThresholds())

	if got.Decision != domain.DecisionLocalOnly {
		t.Errorf("decision = %s, want local_only", got.Decision)
	}
	if !strings.Contains(got.Reason, "high local confidence") {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestDecide_LowConfidence(t *testing.T) {
	in := Inputs{DomainRelevance: 0.5, LocalQuality: 0.3, CountAdequacy: 0.4, LocalCount: 2}
	got := Decide(in, DefaultThresholds())

	// 0.4*0.5 + 0.4*0.3 + 0.2*0.4 = 0.40 < 0.6
	if got.Decision != domain.DecisionWebOnly {
		t.Errorf("decision = %s, want web_only", got.Decision)
	}
	if !strings.Contains(got.Reason, "insufficient local confidence") {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestDecide_MediumConfidenceHybrid(t *testing.T) {
	in := Inputs{DomainRelevance: 0.75, LocalQuality: 0.65, CountAdequacy: 0.8, LocalCount: 4}
	got := Decide(in, DefaultThresholds())

	// 0.4*0.75 + 0.4*0.65 + 0.2*0.8 = 0.72, between 0.6 and 0.8
	if got.Decision != domain.DecisionHybrid {
		t.Errorf("decision = %s, want hybrid (combined %.2f)", got.Decision, got.CombinedConfidence)
	}
}

func TestDecide_ZeroLocalCandidatesNeverLocalOnly(t *testing.T) {
	// Zero candidates must never yield local_only, for any valid thresholds:
	// the domain-relevance weight alone could otherwise clear an aggressive
	// High cut-off.
	cases := []struct {
		name string
		in   Inputs
		th   Thresholds
	}{
		{"default thresholds", Inputs{DomainRelevance: 1, LocalQuality: 1, CountAdequacy: 1, LocalCount: 0}, DefaultThresholds()},
		{"aggressive thresholds", Inputs{DomainRelevance: 0.95, LocalCount: 0}, Thresholds{Low: 0.2, High: 0.35, DomainFloor: 0.3}},
		{"high floor low cutoffs", Inputs{DomainRelevance: 0.99, LocalQuality: 0.5, CountAdequacy: 0.5, LocalCount: 0}, Thresholds{Low: 0.1, High: 0.3, DomainFloor: 0.5}},
	}

	for _, tc := range cases {
		got := Decide(tc.in, tc.th)
		if got.Decision == domain.DecisionLocalOnly {
			t.Errorf("%s: zero local candidates produced local_only (combined %.2f)", tc.name, got.CombinedConfidence)
		}
		if got.LocalQuality != 0 {
			t.Errorf("%s: LocalQuality = %v, want forced 0", tc.name, got.LocalQuality)
		}
		if got.CombinedConfidence != 0 {
			t.Errorf("%s: CombinedConfidence = %v, want 0", tc.name, got.CombinedConfidence)
		}
	}
}

func TestDecide_FailsClosedOnInvalidInputs(t *testing.T) {
	cases := []Inputs{
		{DomainRelevance: math.NaN(), LocalQuality: 0.9, CountAdequacy: 1, LocalCount: 5},
		{DomainRelevance: 0.9, LocalQuality: -0.1, CountAdequacy: 1, LocalCount: 5},
		{DomainRelevance: 0.9, LocalQuality: 0.9, CountAdequacy: 1.5, LocalCount: 5},
		{DomainRelevance: 2.0, LocalQuality: 0.9, CountAdequacy: 1, LocalCount: 5},
	}

	for i, in := range cases {
		got := Decide(in, DefaultThresholds())
		if got.Decision != domain.DecisionWebOnly {
			t.Errorf("case %d: decision = %s, want web_only (fail closed)", i, got.Decision)
		}
	}
}

func TestDecide_Deterministic(t *testing.T) {
	in := Inputs{DomainRelevance: 0.7, LocalQuality: 0.7, CountAdequacy: 0.6, LocalCount: 3}
	th := DefaultThresholds()

	first := Decide(in, th)
	for i := 0; i < 10; i++ {
		if got := Decide(in, th); got != first {
			t.Fatalf("non-deterministic decision: %+v vs %+v", got, first)
		}
	}
}
