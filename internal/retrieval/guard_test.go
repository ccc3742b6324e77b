package retrieval

import (
	"errors"
	"strings"
	"testing"

	"github.com/citydesk/planqa/internal/domain"
)

func TestGuard_QuestionEmpty(t *testing.T) {
	g := NewGuard(DefaultLimits())

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := g.Question(q); !errors.Is(err, domain.ErrEmptyQuestion) {
			t.Errorf("Question(%q) err = %v, want ErrEmptyQuestion", q, err)
		}
	}
}

func TestGuard_QuestionTruncatedNotRejected(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxQuestionChars = 10
	g := NewGuard(limits)

	got, err := g.Question(strings.Repeat("a", 50))
	if err != nil {
		t.Fatalf("oversized question rejected: %v", err)
	}
	if len([]rune(got)) != 10 {
		t.Errorf("truncated length = %d, want 10", len([]rune(got)))
	}
}

func TestGuard_QuestionTruncationIsRuneSafe(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxQuestionChars = 3
	g := NewGuard(limits)

	got, err := g.Question("höhenbegrenzung")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "höh" {
		t.Errorf("truncated = %q, want %q", got, "höh")
	}
}

func TestGuard_CandidatesOverCountRejected(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxCandidates = 2
	g := NewGuard(limits)

	raw := []domain.Passage{
		{ID: "A.1", Text: "one"},
		{ID: "A.2", Text: "two"},
		{ID: "A.3", Text: "three"},
	}
	if _, err := g.Candidates(raw); !errors.Is(err, domain.ErrTooManyCandidates) {
		t.Fatalf("err = %v, want ErrTooManyCandidates", err)
	}
}

func TestGuard_CandidatesMissingFieldsDropped(t *testing.T) {
	g := NewGuard(DefaultLimits())

	raw := []domain.Passage{
		{ID: "A.1", Text: "valid"},
		{ID: "", Text: "no id"},
		{ID: "A.3", Text: "   "},
		{ID: "A.4", Text: "also valid"},
	}
	got, err := g.Candidates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(got))
	}
	if got[0].ID != "A.1" || got[1].ID != "A.4" {
		t.Errorf("kept IDs = [%s %s], want [A.1 A.4]", got[0].ID, got[1].ID)
	}
}

func TestGuard_CandidatesAllInvalid(t *testing.T) {
	g := NewGuard(DefaultLimits())

	raw := []domain.Passage{
		{ID: "", Text: "no id"},
		{ID: "A.2", Text: ""},
	}
	if _, err := g.Candidates(raw); !errors.Is(err, domain.ErrNoValidCandidates) {
		t.Fatalf("err = %v, want ErrNoValidCandidates", err)
	}
}

func TestGuard_CandidateFieldsTruncatedSilently(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxIDChars = 4
	limits.MaxTitleChars = 5
	limits.MaxTextChars = 6
	g := NewGuard(limits)

	raw := []domain.Passage{{
		ID:           "A.1.2.3.4",
		ParentID:     "A.1.2.3",
		SectionTitle: "Residential Districts",
		Text:         "Fences shall not exceed six feet.",
	}}
	got, err := g.Candidates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := got[0]
	if p.ID != "A.1." || p.ParentID != "A.1." {
		t.Errorf("ID/ParentID = %q/%q, want truncated to 4 chars", p.ID, p.ParentID)
	}
	if p.SectionTitle != "Resid" {
		t.Errorf("SectionTitle = %q, want %q", p.SectionTitle, "Resid")
	}
	if p.Text != "Fences" {
		t.Errorf("Text = %q, want %q", p.Text, "Fences")
	}
}
