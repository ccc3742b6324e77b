package domain

// Passage is one indexed excerpt of the planning document.
// Passages are loaded once at startup and never mutated.
type Passage struct {
	ID           string
	ParentID     string
	SectionTitle string
	Text         string
}

// ScoredCandidate pairs a passage with its lexical relevance score.
// Created fresh per query; Score is always > 0 (zero-score passages
// are excluded from candidate lists).
type ScoredCandidate struct {
	Passage Passage
	Score   float64
}

// ResultGroup collapses candidates under their parent section for display.
type ResultGroup struct {
	SectionID    string
	SectionTitle string
	Members      []ScoredCandidate
}

// TopScore returns the best member score, or 0 for an empty group.
func (g ResultGroup) TopScore() float64 {
	if len(g.Members) == 0 {
		return 0
	}
	return g.Members[0].Score
}

// RerankedCandidate pairs a passage with its cosine similarity to the
// query embedding. Similarity is in [-1, 1]. Request-scoped.
type RerankedCandidate struct {
	Passage    Passage
	Similarity float64
}
