package planqa

import "github.com/citydesk/planqa/internal/domain"

// Limits caps untrusted input at the engine boundary. See WithLimits.
type Limits struct {
	MaxQuestionChars int
	MaxCandidates    int
}

// Passage is one indexed excerpt of a planning document.
type Passage struct {
	ID           string
	ParentID     string
	SectionTitle string
	Text         string
}

// ScoredPassage is a passage with its lexical relevance score.
type ScoredPassage struct {
	Passage
	Score float64
}

// SectionGroup collects scored passages under their parent section, in
// ranked order.
type SectionGroup struct {
	SectionID    string
	SectionTitle string
	TopScore     float64
	Passages     []ScoredPassage
}

// RankedPassage is a passage with its semantic similarity to the question.
// When the engine had to fall back to lexical order, Similarity carries the
// lexical score instead.
type RankedPassage struct {
	Passage
	Similarity float64
}

// Answer is a generated answer with the passages that back it.
type Answer struct {
	Text                  string
	Passages              []RankedPassage
	UsedSemanticReranking bool
	TotalTokens           int
}

func passageToDomain(p Passage) domain.Passage {
	return domain.Passage{
		ID:           p.ID,
		ParentID:     p.ParentID,
		SectionTitle: p.SectionTitle,
		Text:         p.Text,
	}
}

func passageFromDomain(p domain.Passage) Passage {
	return Passage{
		ID:           p.ID,
		ParentID:     p.ParentID,
		SectionTitle: p.SectionTitle,
		Text:         p.Text,
	}
}

func groupsFromDomain(groups []domain.ResultGroup) []SectionGroup {
	out := make([]SectionGroup, len(groups))
	for i, g := range groups {
		members := make([]ScoredPassage, len(g.Members))
		for j, m := range g.Members {
			members[j] = ScoredPassage{
				Passage: passageFromDomain(m.Passage),
				Score:   m.Score,
			}
		}
		out[i] = SectionGroup{
			SectionID:    g.SectionID,
			SectionTitle: g.SectionTitle,
			TopScore:     g.TopScore(),
			Passages:     members,
		}
	}
	return out
}

func rankedFromDomain(in []domain.RerankedCandidate) []RankedPassage {
	out := make([]RankedPassage, len(in))
	for i, c := range in {
		out[i] = RankedPassage{
			Passage:    passageFromDomain(c.Passage),
			Similarity: c.Similarity,
		}
	}
	return out
}
