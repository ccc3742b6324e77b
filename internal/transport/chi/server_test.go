package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/retrieval"
	answeruc "github.com/citydesk/planqa/internal/usecase/answer"
	healthuc "github.com/citydesk/planqa/internal/usecase/health"
	searchuc "github.com/citydesk/planqa/internal/usecase/search"
)

var testPassages = []domain.Passage{
	{
		ID:           "B.4.1",
		ParentID:     "B.4",
		SectionTitle: "Natural Environment",
		Text:         "Development shall protect hydrology and drainage patterns on sloped sites.",
	},
	{
		ID:           "D.9.def.sign",
		ParentID:     "D.9",
		SectionTitle: "Signage Standards",
		Text:         "Freestanding signage shall not exceed six feet in height within the district.",
	},
	{
		ID:           "D.9.2",
		ParentID:     "D.9",
		SectionTitle: "Signage Standards",
		Text:         "Illuminated signs require design review approval before installation.",
	},
}

type passthroughReranker struct{}

func (passthroughReranker) Rerank(
	_ context.Context, _ string, candidates []domain.ScoredCandidate,
) ([]domain.RerankedCandidate, bool) {
	out := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedCandidate{Passage: c.Passage, Similarity: c.Score}
	}
	return out, false
}

type staticGenerator struct {
	err error
}

func (g *staticGenerator) Generate(_ context.Context, _, _ string) (domain.GenerationResult, error) {
	if g.err != nil {
		return domain.GenerationResult{}, g.err
	}
	return domain.GenerationResult{Text: "the answer", TotalTokens: 10}, nil
}

func newTestRouter(t *testing.T, genErr error) http.Handler {
	t.Helper()

	guard := retrieval.NewGuard(retrieval.DefaultLimits())
	norm := retrieval.NewNormalizer(retrieval.DefaultTuning())
	scorer := retrieval.NewScorer(norm, testPassages)

	searchSvc := searchuc.New(guard, norm, scorer)
	answerSvc := answeruc.New(
		guard, searchSvc, passthroughReranker{}, &staticGenerator{err: genErr}, 25, "",
	)
	healthSvc := healthuc.New(len(testPassages), nil, nil)

	server := NewServer(searchSvc, answerSvc, healthSvc, "test", zap.NewNop())

	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSearch_ReturnsGroupedResults(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/search", `{"question":"signage height rules"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Groups) == 0 {
		t.Fatal("expected at least one group")
	}
	if resp.Groups[0].SectionID != "D.9" {
		t.Errorf("top group = %q, want D.9", resp.Groups[0].SectionID)
	}
	if resp.Total == 0 {
		t.Error("total = 0, want > 0")
	}
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/search", `{"question":"zzzz qqqq"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Groups) != 0 {
		t.Errorf("groups = %d, want 0", len(resp.Groups))
	}
}

func TestSearch_EmptyQuestion_400(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/search", `{"question":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestSearch_MalformedBody_400(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/search", `{"question":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("code = %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestAsk_ReturnsAnswerWithPassages(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/ask", `{"question":"how tall can a sign be?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp AskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Passages) == 0 {
		t.Fatal("expected passages backing the answer")
	}
	if resp.UsedSemanticReranking {
		t.Error("usedSemanticReranking = true, want false for lexical fallback")
	}
}

func TestAsk_SuppliedCandidates(t *testing.T) {
	h := newTestRouter(t, nil)

	body := `{"question":"drainage?","candidates":[
		{"id":"B.4.1","parentId":"B.4","sectionTitle":"Natural Environment","text":"hydrology text"}
	]}`
	rr := postJSON(t, h, "/v1/ask", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp AskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Passages) != 1 || resp.Passages[0].ID != "B.4.1" {
		t.Errorf("passages = %+v, want the supplied candidate", resp.Passages)
	}
}

func TestAsk_TooManyCandidates_400(t *testing.T) {
	h := newTestRouter(t, nil)

	var candidates []string
	for i := 0; i < 51; i++ {
		candidates = append(candidates, `{"id":"X","text":"y"}`)
	}
	body := `{"question":"q","candidates":[` + strings.Join(candidates, ",") + `]}`

	rr := postJSON(t, h, "/v1/ask", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestAsk_NoMatches_400(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := postJSON(t, h, "/v1/ask", `{"question":"zzzz qqqq"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAsk_GenerationFailure_502(t *testing.T) {
	h := newTestRouter(t, domain.ErrGenerationProviderError)

	rr := postJSON(t, h, "/v1/ask", `{"question":"signage height?"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeGenerationProviderError {
		t.Errorf("code = %s, want %s", errResp.Code, CodeGenerationProviderError)
	}
}

func TestHealth_OK(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q, want %q", resp.Status, healthuc.Healthy)
	}
	if resp.Checks["corpus"] != string(healthuc.CheckOK) {
		t.Errorf("corpus check = %q", resp.Checks["corpus"])
	}
}

func TestMetrics_Exposed(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("expected prometheus exposition output")
	}
}
