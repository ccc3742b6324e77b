package chi

import "github.com/citydesk/planqa/internal/domain"

// ErrorCode classifies API errors for clients.
type ErrorCode string

const (
	// CodeBadRequest signals an unparseable request body.
	CodeBadRequest ErrorCode = "bad_request"
	// CodeValidationFailed signals a request that parsed but failed boundary checks.
	CodeValidationFailed ErrorCode = "validation_failed"
	// CodeUnauthorized signals a missing or invalid API key.
	CodeUnauthorized ErrorCode = "unauthorized"
	// CodeRateLimited signals an exhausted request budget.
	CodeRateLimited ErrorCode = "rate_limited"
	// CodeGenerationProviderError signals a text-generation backend failure.
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	// CodeInternalError signals an unclassified server failure.
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PassageInput is a caller-supplied passage-like record.
type PassageInput struct {
	ID           string `json:"id"`
	ParentID     string `json:"parentId"`
	SectionTitle string `json:"sectionTitle"`
	Text         string `json:"text"`
}

// AskRequest is the POST /v1/ask body. Candidates are optional; when absent
// the service retrieves its own shortlist from the corpus.
type AskRequest struct {
	Question   string         `json:"question"`
	Candidates []PassageInput `json:"candidates,omitempty"`
}

// AskPassage is one passage backing the answer, in ranked order.
type AskPassage struct {
	ID           string  `json:"id"`
	ParentID     string  `json:"parentId,omitempty"`
	SectionTitle string  `json:"sectionTitle,omitempty"`
	Text         string  `json:"text"`
	Similarity   float64 `json:"similarity"`
}

// AskResponse is the POST /v1/ask response.
type AskResponse struct {
	Answer                string       `json:"answer"`
	Passages              []AskPassage `json:"passages"`
	UsedSemanticReranking bool         `json:"usedSemanticReranking"`
	TotalTokens           int          `json:"totalTokens,omitempty"`
}

// SearchRequest is the POST /v1/search body.
type SearchRequest struct {
	Question string `json:"question"`
}

// SearchMember is one scored passage inside a section group.
type SearchMember struct {
	ID           string  `json:"id"`
	ParentID     string  `json:"parentId,omitempty"`
	SectionTitle string  `json:"sectionTitle,omitempty"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

// SearchGroup is one ranked section group.
type SearchGroup struct {
	SectionID    string         `json:"sectionId"`
	SectionTitle string         `json:"sectionTitle,omitempty"`
	TopScore     float64        `json:"topScore"`
	Members      []SearchMember `json:"members"`
}

// SearchResponse is the POST /v1/search response.
type SearchResponse struct {
	Groups []SearchGroup `json:"groups"`
	Total  int           `json:"total"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

func passagesFromInput(in []PassageInput) []domain.Passage {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Passage, len(in))
	for i, p := range in {
		out[i] = domain.Passage{
			ID:           p.ID,
			ParentID:     p.ParentID,
			SectionTitle: p.SectionTitle,
			Text:         p.Text,
		}
	}
	return out
}

func askPassagesToDTO(in []domain.RerankedCandidate) []AskPassage {
	out := make([]AskPassage, len(in))
	for i, c := range in {
		out[i] = AskPassage{
			ID:           c.Passage.ID,
			ParentID:     c.Passage.ParentID,
			SectionTitle: c.Passage.SectionTitle,
			Text:         c.Passage.Text,
			Similarity:   c.Similarity,
		}
	}
	return out
}

func groupsToDTO(in []domain.ResultGroup) []SearchGroup {
	out := make([]SearchGroup, len(in))
	for i, g := range in {
		members := make([]SearchMember, len(g.Members))
		for j, m := range g.Members {
			members[j] = SearchMember{
				ID:           m.Passage.ID,
				ParentID:     m.Passage.ParentID,
				SectionTitle: m.Passage.SectionTitle,
				Text:         m.Passage.Text,
				Score:        m.Score,
			}
		}
		out[i] = SearchGroup{
			SectionID:    g.SectionID,
			SectionTitle: g.SectionTitle,
			TopScore:     g.TopScore(),
			Members:      members,
		}
	}
	return out
}
