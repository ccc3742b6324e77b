package retrieval

import (
	"math"
	"sort"

	"github.com/citydesk/planqa/internal/domain"
)

// Scorer ranks passages against a query term set using TF-IDF weighting.
// Per-passage term frequencies and corpus-wide document frequencies are
// computed once at construction; the corpus is immutable, so the cache
// changes no observable behavior. Safe for concurrent use after New.
type Scorer struct {
	passages []domain.Passage
	termFreq []map[string]float64
	docFreq  map[string]int
}

// NewScorer builds a scorer over the given passages, extracting and
// expanding each passage's terms with the normalizer.
func NewScorer(n *Normalizer, passages []domain.Passage) *Scorer {
	s := &Scorer{
		passages: passages,
		termFreq: make([]map[string]float64, len(passages)),
		docFreq:  make(map[string]int),
	}

	for i, p := range passages {
		freq, kept := n.WeightedFrequencies(p.SectionTitle + " " + p.Text)
		if kept == 0 {
			kept = 1
		}
		tf := make(map[string]float64, len(freq))
		for term, count := range freq {
			tf[term] = count / float64(kept)
		}
		s.termFreq[i] = tf
		for term := range freq {
			s.docFreq[term]++
		}
	}
	return s
}

// PassageCount returns the number of passages in the corpus.
func (s *Scorer) PassageCount() int { return len(s.passages) }

// ScoreChunks scores every passage against the expanded query terms and
// returns candidates in descending score order. Passages with no matching
// term are excluded entirely. Ties are broken by passage ID compared as an
// opaque string; hierarchical policy IDs like "D.9.def.sign" are never
// coerced to numbers.
func (s *Scorer) ScoreChunks(query TermSet) []domain.ScoredCandidate {
	if len(query) == 0 {
		return nil
	}

	total := float64(len(s.passages))
	candidates := make([]domain.ScoredCandidate, 0, len(s.passages))

	for i, p := range s.passages {
		tf := s.termFreq[i]
		var score float64
		for term, qw := range query {
			pw, ok := tf[term]
			if !ok {
				continue
			}
			df := s.docFreq[term]
			// Add-one smoothing keeps terms present in every passage
			// from zeroing out instead of merely scoring low.
			idf := math.Log(1 + total/float64(df))
			score += qw * pw * idf
		}
		if score > 0 {
			candidates = append(candidates, domain.ScoredCandidate{Passage: p, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Passage.ID < candidates[j].Passage.ID
	})

	return candidates
}
