// Package search serves the client-facing lexical retrieval path: question
// in, section-grouped scored passages out. Pure synchronous computation; no
// call in this package suspends.
package search

import (
	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/metrics"
	"github.com/citydesk/planqa/internal/retrieval"
)

// Service scores questions against the corpus and groups the results.
type Service struct {
	guard  retrieval.Guard
	norm   *retrieval.Normalizer
	scorer *retrieval.Scorer
}

// New creates a lexical search service.
func New(guard retrieval.Guard, norm *retrieval.Normalizer, scorer *retrieval.Scorer) *Service {
	return &Service{guard: guard, norm: norm, scorer: scorer}
}

// Search validates the question, scores the corpus, and returns
// section-level groups in ranked order. A query matching nothing returns an
// empty group list, not an error.
func (s *Service) Search(question string) ([]domain.ResultGroup, error) {
	q, err := s.guard.Question(question)
	if err != nil {
		return nil, err
	}

	candidates := s.scorer.ScoreChunks(s.norm.ExtractTerms(q))

	metrics.RetrievalQueriesTotal.Inc()
	metrics.RetrievalCandidates.Observe(float64(len(candidates)))

	return retrieval.GroupBySection(candidates), nil
}

// Shortlist validates the question and returns the flat ranked candidate
// list, capped at limit. Used by the answering path to build the reranker's
// input when the caller supplies no candidates of its own.
func (s *Service) Shortlist(question string, limit int) ([]domain.ScoredCandidate, error) {
	q, err := s.guard.Question(question)
	if err != nil {
		return nil, err
	}

	candidates := s.scorer.ScoreChunks(s.norm.ExtractTerms(q))
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
