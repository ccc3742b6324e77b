// Package answer orchestrates the question-answering path: boundary guard,
// lexical shortlist, semantic rerank, prompt synthesis, text generation.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/retrieval"
	"github.com/citydesk/planqa/internal/usecase/rerank"
)

// DefaultSystemInstruction is the fixed instruction handed to the
// text-generation collaborator alongside the synthesized prompt.
const DefaultSystemInstruction = "You answer questions about the municipal planning document. " +
	"Ground every statement in the policy passages provided, cite passages by their " +
	"identifier in square brackets, and say so plainly when the passages do not answer " +
	"the question."

// passageSeparator joins rendered passages inside the prompt.
const passageSeparator = "\n\n---\n\n"

// Request is the inbound question-answering request. Candidates are optional
// raw passage-like records; when absent the service computes the lexical
// shortlist itself.
type Request struct {
	Question   string
	Candidates []domain.Passage
}

// Response is the outbound answer.
type Response struct {
	Answer                string
	Passages              []domain.RerankedCandidate
	UsedSemanticReranking bool
	TotalTokens           int
}

// Service handles question answering.
type Service struct {
	guard     retrieval.Guard
	shortlist Shortlister
	reranker  Reranker
	gen       domain.Generator
	topN      int
	system    string
}

// New creates an answering service.
func New(
	guard retrieval.Guard,
	shortlist Shortlister,
	reranker Reranker,
	gen domain.Generator,
	topN int,
	system string,
) *Service {
	if system == "" {
		system = DefaultSystemInstruction
	}
	return &Service{
		guard:     guard,
		shortlist: shortlist,
		reranker:  reranker,
		gen:       gen,
		topN:      topN,
		system:    system,
	}
}

// Ask answers a question. Validation failures return a domain validation
// error; generation failures return ErrGenerationProviderError; embedding
// failures never surface — the answer is then built from the lexical order.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	question, err := s.guard.Question(req.Question)
	if err != nil {
		return Response{}, err
	}

	candidates, err := s.resolveCandidates(question, req.Candidates)
	if err != nil {
		return Response{}, err
	}
	if len(candidates) == 0 {
		return Response{}, domain.ErrNoValidCandidates
	}

	ranked, usedSemantic := s.reranker.Rerank(ctx, question, candidates)
	reranked := rerank.Truncate(ranked, s.topN)

	prompt := buildPrompt(question, reranked)
	result, err := s.gen.Generate(ctx, s.system, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	return Response{
		Answer:                result.Text,
		Passages:              reranked,
		UsedSemanticReranking: usedSemantic,
		TotalTokens:           result.TotalTokens,
	}, nil
}

// resolveCandidates uses caller-supplied candidates when present (guarded),
// otherwise computes the lexical shortlist.
func (s *Service) resolveCandidates(
	question string, supplied []domain.Passage,
) ([]domain.ScoredCandidate, error) {
	if len(supplied) > 0 {
		valid, err := s.guard.Candidates(supplied)
		if err != nil {
			return nil, err
		}
		// Caller order is the lexical order; keep it.
		candidates := make([]domain.ScoredCandidate, len(valid))
		for i, p := range valid {
			candidates[i] = domain.ScoredCandidate{Passage: p}
		}
		return candidates, nil
	}

	return s.shortlist.Shortlist(question, s.topN)
}

// buildPrompt renders the question and the reranked passages, each as
// "[id] (section title)\n text", joined by a separator.
func buildPrompt(question string, passages []domain.RerankedCandidate) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nRelevant policy passages:\n\n")
	for i, p := range passages {
		if i > 0 {
			b.WriteString(passageSeparator)
		}
		fmt.Fprintf(&b, "[%s] (%s)\n%s", p.Passage.ID, p.Passage.SectionTitle, p.Passage.Text)
	}
	return b.String()
}
