package retrieval

import (
	"fmt"
	"strings"

	"github.com/citydesk/planqa/internal/domain"
)

// Limits caps every untrusted field before it reaches scoring or reranking.
// Values are policy, not law, but must be enforced identically everywhere.
type Limits struct {
	MaxQuestionChars int `yaml:"max_question_chars"`
	MaxCandidates    int `yaml:"max_candidates"`
	MaxIDChars       int `yaml:"max_id_chars"`
	MaxTitleChars    int `yaml:"max_title_chars"`
	MaxTextChars     int `yaml:"max_text_chars"`
}

// DefaultLimits returns the default boundary caps.
func DefaultLimits() Limits {
	return Limits{
		MaxQuestionChars: 2000,
		MaxCandidates:    50,
		MaxIDChars:       100,
		MaxTitleChars:    300,
		MaxTextChars:     4000,
	}
}

// Guard validates and truncates untrusted input at the request boundary.
type Guard struct {
	limits Limits
}

// NewGuard creates a boundary guard with the given limits.
func NewGuard(limits Limits) Guard {
	return Guard{limits: limits}
}

// Question validates the question text. Empty or blank input is a hard
// validation error; oversized input is truncated, never rejected.
func (g Guard) Question(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.ErrEmptyQuestion
	}
	return truncate(q, g.limits.MaxQuestionChars), nil
}

// Candidates validates a caller-supplied candidate batch. A batch above the
// count cap is rejected outright rather than silently truncated, so caller
// intent is never dropped without notice. Candidates missing an ID or body
// text are removed from the batch; if nothing valid remains, that is a
// validation error. Per-field oversizes are truncated silently.
func (g Guard) Candidates(raw []domain.Passage) ([]domain.Passage, error) {
	if len(raw) > g.limits.MaxCandidates {
		return nil, fmt.Errorf("%w: got %d, limit %d",
			domain.ErrTooManyCandidates, len(raw), g.limits.MaxCandidates)
	}

	valid := make([]domain.Passage, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		p.ID = truncate(p.ID, g.limits.MaxIDChars)
		p.ParentID = truncate(p.ParentID, g.limits.MaxIDChars)
		p.SectionTitle = truncate(p.SectionTitle, g.limits.MaxTitleChars)
		p.Text = truncate(p.Text, g.limits.MaxTextChars)
		valid = append(valid, p)
	}

	if len(valid) == 0 {
		return nil, domain.ErrNoValidCandidates
	}
	return valid, nil
}

// truncate cuts s to at most max runes, never splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
