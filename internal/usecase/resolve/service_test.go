package resolve

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/keplerlabs/kepler/internal/domain"
	"github.com/keplerlabs/kepler/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

func TestResolve_LocalOnlyNeverCallsWeb(t *testing.T) {
	local := &mockRetriever{candidates: []domain.Candidate{
		localCand("Station modules dock autonomously.", 0.9),
		localCand("Crew rotations last six months.", 0.88),
		localCand("Resupply flights arrive monthly.", 0.86),
	}}
	web := &mockSearcher{candidates: []domain.Candidate{webCand("web result", 0.5)}}
	scorer := &mockScorer{relevance: 0.9, quality: 0.9}

	svc := New(local, web, scorer, DefaultConfig())
	res, err := svc.Resolve(context.Background(), "station crew rotation schedule")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Breakdown.Decision != domain.DecisionLocalOnly {
		t.Fatalf("decision = %q, want local_only (breakdown %+v)", res.Breakdown.Decision, res.Breakdown)
	}
	if web.calls.Load() != 0 {
		t.Errorf("web searcher called %d times, want 0", web.calls.Load())
	}
	for _, c := range res.Candidates {
		if c.Origin != domain.OriginLocal {
			t.Errorf("candidate origin = %q, want local only", c.Origin)
		}
	}
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].RelevanceScore > res.Candidates[i-1].RelevanceScore {
			t.Error("candidates not sorted descending by score")
		}
	}
}

func TestResolve_WebOnlyDropsLocal(t *testing.T) {
	local := &mockRetriever{candidates: []domain.Candidate{localCand("off-topic local", 0.2)}}
	web := &mockSearcher{candidates: []domain.Candidate{webCand("Paris is the capital of France.", 0.8)}}
	scorer := &mockScorer{relevance: 0.05, quality: 0.2}

	svc := New(local, web, scorer, DefaultConfig())
	res, err := svc.Resolve(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Breakdown.Decision != domain.DecisionWebOnly {
		t.Fatalf("decision = %q, want web_only", res.Breakdown.Decision)
	}
	if web.calls.Load() != 1 {
		t.Errorf("web searcher called %d times, want 1", web.calls.Load())
	}
	for _, c := range res.Candidates {
		if c.Origin != domain.OriginWeb {
			t.Errorf("candidate origin = %q, want web only", c.Origin)
		}
	}
}

func TestResolve_HybridContainsBothOrigins(t *testing.T) {
	local := &mockRetriever{candidates: []domain.Candidate{
		localCand("Partial local coverage of the topic.", 0.65),
	}}
	web := &mockSearcher{candidates: []domain.Candidate{
		webCand("Fresh external coverage of the topic.", 0.7),
	}}
	scorer := &mockScorer{relevance: 0.75, quality: 0.65}

	svc := New(local, web, scorer, DefaultConfig())
	res, err := svc.Resolve(context.Background(), "recent mission status update")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Breakdown.Decision != domain.DecisionHybrid {
		t.Fatalf("decision = %q, want hybrid (breakdown %+v)", res.Breakdown.Decision, res.Breakdown)
	}
	origins := map[domain.Origin]bool{}
	for _, c := range res.Candidates {
		origins[c.Origin] = true
	}
	if !origins[domain.OriginLocal] || !origins[domain.OriginWeb] {
		t.Errorf("origins = %v, want both local and web", origins)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	svc := New(&mockRetriever{}, &mockSearcher{}, &mockScorer{}, DefaultConfig())

	if _, err := svc.Resolve(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestResolve_LocalFailureDegradesToWeb(t *testing.T) {
	local := &mockRetriever{err: errors.New("index unavailable")}
	web := &mockSearcher{candidates: []domain.Candidate{webCand("external evidence", 0.6)}}
	scorer := &mockScorer{relevance: 0.9, quality: 0.9}

	svc := New(local, web, scorer, DefaultConfig())
	res, err := svc.Resolve(context.Background(), "station telemetry formats")
	if err != nil {
		t.Fatalf("Resolve must not propagate retriever errors, got %v", err)
	}

	if res.Breakdown.Decision == domain.DecisionLocalOnly {
		t.Fatalf("decision = local_only with zero local candidates")
	}
	if web.calls.Load() != 1 {
		t.Errorf("web searcher called %d times, want 1", web.calls.Load())
	}
	if len(res.Candidates) != 1 {
		t.Errorf("got %d candidates, want the web result", len(res.Candidates))
	}
}

func TestResolve_EverythingEmptyIsLowConfidence(t *testing.T) {
	svc := New(&mockRetriever{}, &mockSearcher{}, &mockScorer{relevance: 0.5}, DefaultConfig())

	res, err := svc.Resolve(context.Background(), "obscure question with no evidence")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(res.Candidates))
	}
	if !res.LowConfidence {
		t.Error("empty resolution must be flagged low confidence")
	}
	if res.Breakdown.Reason == "" {
		t.Error("breakdown must carry an explanatory reason")
	}
}

func TestResolve_TruncatesToMax(t *testing.T) {
	var locals []domain.Candidate
	for i := 0; i < 8; i++ {
		locals = append(locals, localCand("distinct local content number "+string(rune('a'+i)), 0.9-float64(i)*0.01))
	}
	local := &mockRetriever{candidates: locals}
	scorer := &mockScorer{relevance: 0.9, quality: 0.9}

	cfg := DefaultConfig()
	cfg.MaxLocalResults = 8
	svc := New(local, &mockSearcher{}, scorer, cfg)

	res, err := svc.Resolve(context.Background(), "station subsystems overview")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) > cfg.Combine.MaxResults {
		t.Errorf("got %d candidates, want at most %d", len(res.Candidates), cfg.Combine.MaxResults)
	}
}
