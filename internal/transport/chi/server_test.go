package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
	healthuc "github.com/keplerlabs/kepler/internal/usecase/health"
	resolveuc "github.com/keplerlabs/kepler/internal/usecase/resolve"
)

// --- Mocks ---

type stubRetriever struct {
	candidates []domain.Candidate
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, topK int) ([]domain.Candidate, error) {
	c := s.candidates
	if len(c) > topK {
		c = c[:topK]
	}
	return c, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string, int) []domain.Candidate { return nil }

type stubScorer struct {
	relevance float64
	quality   float64
}

func (s *stubScorer) DomainRelevance(context.Context, string) float64 { return s.relevance }
func (s *stubScorer) ResultQuality(_ string, c []domain.Candidate) float64 {
	if len(c) == 0 {
		return 0
	}
	return s.quality
}
func (s *stubScorer) CountAdequacy(n int) float64 {
	a := float64(n) / 3.0
	if a > 1 {
		a = 1
	}
	return a
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testRouter(t *testing.T, resolve *resolveuc.Service, health *healthuc.Service) http.Handler {
	t.Helper()
	srv := NewServer(resolve, health, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func localOnlyService() *resolveuc.Service {
	local := &stubRetriever{candidates: []domain.Candidate{
		{Content: "Station orbit altitude is about 400 km.", Title: "Orbit", SourceLabel: "knowledge_base", Origin: domain.OriginLocal, RelevanceScore: 0.9},
		{Content: "Crew rotations last six months.", Title: "Crew", SourceLabel: "knowledge_base", Origin: domain.OriginLocal, RelevanceScore: 0.85},
		{Content: "Resupply flights arrive monthly.", Title: "Resupply", SourceLabel: "knowledge_base", Origin: domain.OriginLocal, RelevanceScore: 0.8},
	}}
	return resolveuc.New(local, stubSearcher{}, &stubScorer{relevance: 0.9, quality: 0.9}, resolveuc.DefaultConfig())
}

// --- Tests ---

func TestResolveHandler_OK(t *testing.T) {
	router := testRouter(t, localOnlyService(), healthuc.New(stubPinger{}, nil, nil))

	body := strings.NewReader(`{"query": "station orbit altitude"}`)
	req := httptest.NewRequest("POST", "/v1/resolve", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp ResolveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Candidates) == 0 {
		t.Fatal("no candidates in response")
	}
	if resp.Breakdown.Decision != string(domain.DecisionLocalOnly) {
		t.Errorf("decision = %q, want local_only", resp.Breakdown.Decision)
	}
	if resp.Breakdown.Reason == "" {
		t.Error("breakdown reason missing")
	}
	if resp.Candidates[0].Origin != string(domain.OriginLocal) {
		t.Errorf("origin = %q, want local", resp.Candidates[0].Origin)
	}
}

func TestResolveHandler_MaxResults(t *testing.T) {
	router := testRouter(t, localOnlyService(), healthuc.New(stubPinger{}, nil, nil))

	body := strings.NewReader(`{"query": "station orbit altitude", "max_results": 1}`)
	req := httptest.NewRequest("POST", "/v1/resolve", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp ResolveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Candidates) != 1 {
		t.Errorf("got %d candidates, want 1", len(resp.Candidates))
	}
}

func TestResolveHandler_EmptyQuery_400(t *testing.T) {
	router := testRouter(t, localOnlyService(), healthuc.New(stubPinger{}, nil, nil))

	body := strings.NewReader(`{"query": "   "}`)
	req := httptest.NewRequest("POST", "/v1/resolve", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrCodeEmptyQuery {
		t.Errorf("error code = %q, want %q", errResp.Code, ErrCodeEmptyQuery)
	}
}

func TestResolveHandler_InvalidBody_400(t *testing.T) {
	router := testRouter(t, localOnlyService(), healthuc.New(stubPinger{}, nil, nil))

	req := httptest.NewRequest("POST", "/v1/resolve", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHealthHandler_OK(t *testing.T) {
	router := testRouter(t, localOnlyService(), healthuc.New(stubPinger{}, nil, nil))

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q, want %q", resp.Status, healthuc.Healthy)
	}
	if resp.Checks["cache"] != string(healthuc.CheckOK) {
		t.Errorf("cache check = %q, want ok", resp.Checks["cache"])
	}
}

func TestHealthHandler_Degraded_503(t *testing.T) {
	pinger := stubPinger{err: context.DeadlineExceeded}
	router := testRouter(t, localOnlyService(), healthuc.New(pinger, nil, nil))

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
