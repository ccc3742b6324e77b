package corpus

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	passages, err := Load(filepath.Join("testdata", "corpus.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(passages) != 3 {
		t.Fatalf("loaded %d passages, want 3", len(passages))
	}

	// Order must match the file.
	wantIDs := []string{"A.1.1", "A.1.2", "D.9.def.sign"}
	for i, want := range wantIDs {
		if passages[i].ID != want {
			t.Errorf("passages[%d].ID = %q, want %q", i, passages[i].ID, want)
		}
	}

	p := passages[1]
	if p.ParentID != "A.1" {
		t.Errorf("ParentID = %q, want A.1", p.ParentID)
	}
	if p.SectionTitle != "Residential Districts" {
		t.Errorf("SectionTitle = %q", p.SectionTitle)
	}
	if p.Text == "" {
		t.Error("Text is empty")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "corpus_test.go")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
