package answer

import (
	"context"

	"github.com/citydesk/planqa/internal/domain"
)

// Reranker re-orders a lexical shortlist by semantic similarity. The boolean
// reports whether semantic reranking was actually applied; implementations
// absorb embedding failures and fall back to input order.
type Reranker interface {
	Rerank(ctx context.Context, question string, candidates []domain.ScoredCandidate) ([]domain.RerankedCandidate, bool)
}

// Shortlister produces the lexical shortlist when the caller does not supply
// candidates of its own.
type Shortlister interface {
	Shortlist(question string, limit int) ([]domain.ScoredCandidate, error)
}
