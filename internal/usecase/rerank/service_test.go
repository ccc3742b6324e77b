package rerank

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/citydesk/planqa/internal/domain"
)

type stubEmbedder struct {
	vectors  [][]float32
	err      error
	gotTexts []string
}

func (s *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.gotTexts = texts
	if s.err != nil {
		return domain.BatchEmbeddingResult{}, s.err
	}
	return domain.BatchEmbeddingResult{Embeddings: s.vectors}, nil
}

func lexCandidates(ids ...string) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredCandidate{
			Passage: domain.Passage{ID: id, Text: "text " + id},
			Score:   float64(len(ids) - i),
		}
	}
	return out
}

func TestRerank_OrdersBySimilarity(t *testing.T) {
	// Query aligns with candidate "c"; "a" is orthogonal, "b" opposed.
	embed := &stubEmbedder{vectors: [][]float32{
		{1, 0},  // query
		{0, 1},  // a
		{-1, 0}, // b
		{1, 0},  // c
	}}
	svc := New(embed)

	got, used := svc.Rerank(context.Background(), "q", lexCandidates("a", "b", "c"))
	if !used {
		t.Fatal("expected semantic reranking to be used")
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].Passage.ID != "c" {
		t.Errorf("top candidate = %s, want c", got[0].Passage.ID)
	}
	if got[2].Passage.ID != "b" {
		t.Errorf("last candidate = %s, want b", got[2].Passage.ID)
	}
	if math.Abs(got[0].Similarity-1) > 1e-6 {
		t.Errorf("top similarity = %v, want ~1", got[0].Similarity)
	}
}

func TestRerank_QueryFirstInBatch(t *testing.T) {
	embed := &stubEmbedder{vectors: [][]float32{{1}, {1}, {1}}}
	svc := New(embed)

	svc.Rerank(context.Background(), "the question", lexCandidates("a", "b"))

	if len(embed.gotTexts) != 3 {
		t.Fatalf("batched %d texts, want 3", len(embed.gotTexts))
	}
	if embed.gotTexts[0] != "the question" {
		t.Errorf("first text = %q, want the question", embed.gotTexts[0])
	}
	if embed.gotTexts[1] != "text a" || embed.gotTexts[2] != "text b" {
		t.Errorf("candidate texts = %v", embed.gotTexts[1:])
	}
}

func TestRerank_FailingEmbedderFallsBackToInputOrder(t *testing.T) {
	embed := &stubEmbedder{err: errors.New("service unavailable")}
	svc := New(embed)

	input := lexCandidates("x", "y", "z")
	got, used := svc.Rerank(context.Background(), "q", input)
	if used {
		t.Fatal("fallback must report usedSemanticReranking=false")
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	for i, c := range input {
		if got[i].Passage.ID != c.Passage.ID {
			t.Errorf("fallback[%d] = %s, want %s (input order)", i, got[i].Passage.ID, c.Passage.ID)
		}
	}
}

func TestRerank_NilEmbedderFallsBack(t *testing.T) {
	svc := New(nil)

	got, used := svc.Rerank(context.Background(), "q", lexCandidates("a", "b"))
	if used {
		t.Fatal("nil embedder must not report semantic reranking")
	}
	if got[0].Passage.ID != "a" || got[1].Passage.ID != "b" {
		t.Errorf("fallback order = [%s %s], want [a b]", got[0].Passage.ID, got[1].Passage.ID)
	}
}

func TestRerank_CountMismatchFallsBack(t *testing.T) {
	embed := &stubEmbedder{vectors: [][]float32{{1}, {1}}} // 2 vectors for 3 texts
	svc := New(embed)

	got, used := svc.Rerank(context.Background(), "q", lexCandidates("a", "b"))
	if used {
		t.Fatal("malformed response must fall back, not partially rerank")
	}
	if got[0].Passage.ID != "a" {
		t.Errorf("fallback order broken: %s", got[0].Passage.ID)
	}
}

func TestRerank_ParallelVectorWinsAmongOrthogonal(t *testing.T) {
	const n = 30
	const target = 17

	// Candidate vectors: orthogonal unit vectors for 29, the query vector
	// itself for 1.
	vectors := make([][]float32, n+1)
	query := make([]float32, n+1)
	query[0] = 1
	vectors[0] = query
	for i := 1; i <= n; i++ {
		v := make([]float32, n+1)
		if i == target+1 {
			copy(v, query)
		} else {
			v[i] = 1
		}
		vectors[i] = v
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('A'+i/10)) + string(rune('0'+i%10))
	}
	embed := &stubEmbedder{vectors: vectors}
	svc := New(embed)

	got, used := svc.Rerank(context.Background(), "q", lexCandidates(ids...))
	if !used {
		t.Fatal("expected semantic path")
	}
	if got[0].Passage.ID != ids[target] {
		t.Errorf("top candidate = %s, want %s (the parallel vector)", got[0].Passage.ID, ids[target])
	}
}

func TestRerank_ZeroVectorsDoNotDivideByZero(t *testing.T) {
	embed := &stubEmbedder{vectors: [][]float32{{0, 0}, {0, 0}}}
	svc := New(embed)

	got, used := svc.Rerank(context.Background(), "q", lexCandidates("a"))
	if !used {
		t.Fatal("expected semantic path")
	}
	if math.IsNaN(got[0].Similarity) || math.IsInf(got[0].Similarity, 0) {
		t.Errorf("similarity = %v, want finite", got[0].Similarity)
	}
}

func TestTruncate(t *testing.T) {
	in := make([]domain.RerankedCandidate, 40)
	if got := Truncate(in, 25); len(got) != 25 {
		t.Errorf("Truncate to 25 kept %d", len(got))
	}
	if got := Truncate(in[:10], 25); len(got) != 10 {
		t.Errorf("Truncate under cap kept %d", len(got))
	}
}
