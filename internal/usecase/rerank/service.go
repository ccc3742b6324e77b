// Package rerank re-orders lexical candidates by embedding similarity to the
// query. Reranking is a quality enhancement, never a hard dependency: any
// embedding failure falls back to the lexical order.
package rerank

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/logger"
	"github.com/citydesk/planqa/internal/metrics"
)

// cosineEpsilon guards the cosine denominator against all-zero vectors.
const cosineEpsilon = 1e-10

// Service computes semantic similarity between a question and its lexical
// shortlist. embed may be nil when the deployment has no embedding
// collaborator configured; every call then takes the fallback path.
type Service struct {
	embed domain.BatchEmbedder
}

// New creates a reranking service.
func New(embed domain.BatchEmbedder) *Service {
	return &Service{embed: embed}
}

// Rerank embeds the question and all candidate texts in one batched call
// (question first, candidates after, indices line up on return) and sorts
// candidates by cosine similarity, descending. The boolean reports whether
// semantic reranking was actually used; on any failure the candidates come
// back in their input order and the error is absorbed here.
func (s *Service) Rerank(
	ctx context.Context, question string, candidates []domain.ScoredCandidate,
) ([]domain.RerankedCandidate, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	if s.embed == nil {
		return fallbackOrder(candidates), false
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, question)
	for _, c := range candidates {
		texts = append(texts, c.Passage.Text)
	}

	result, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		logger.FromContext(ctx).Warn("Embedding unavailable, serving lexical order",
			zap.Error(err))
		metrics.EmbeddingFallbacksTotal.Inc()
		return fallbackOrder(candidates), false
	}
	if len(result.Embeddings) != len(texts) {
		logger.FromContext(ctx).Warn("Embedding count mismatch, serving lexical order",
			zap.Int("got", len(result.Embeddings)),
			zap.Int("want", len(texts)))
		metrics.EmbeddingFallbacksTotal.Inc()
		return fallbackOrder(candidates), false
	}

	queryVec := result.Embeddings[0]
	reranked := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		reranked[i] = domain.RerankedCandidate{
			Passage:    c.Passage,
			Similarity: cosineSimilarity(queryVec, result.Embeddings[i+1]),
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		if reranked[i].Similarity != reranked[j].Similarity {
			return reranked[i].Similarity > reranked[j].Similarity
		}
		return reranked[i].Passage.ID < reranked[j].Passage.ID
	})

	return reranked, true
}

// fallbackOrder maps candidates to reranked form preserving lexical order.
func fallbackOrder(candidates []domain.ScoredCandidate) []domain.RerankedCandidate {
	out := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedCandidate{Passage: c.Passage}
	}
	return out
}

// cosineSimilarity is the dot product over the product of magnitudes, with a
// small epsilon so degenerate vectors divide cleanly instead of by zero.
func cosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(magA)*math.Sqrt(magB) + cosineEpsilon)
}

// Truncate caps a reranked list at topN, on either the semantic or the
// fallback path.
func Truncate(candidates []domain.RerankedCandidate, topN int) []domain.RerankedCandidate {
	if topN > 0 && len(candidates) > topN {
		return candidates[:topN]
	}
	return candidates
}
