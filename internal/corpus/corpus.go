// Package corpus loads the fixed passage corpus the retrieval engine scores
// against. The corpus is read once at process start and immutable thereafter;
// the loader supplies the records as-is and does not validate or correct them.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/citydesk/planqa/internal/domain"
)

// passageRecord is the on-disk shape of one passage.
type passageRecord struct {
	ID           string `json:"id"`
	ParentID     string `json:"parentId"`
	SectionTitle string `json:"sectionTitle"`
	Text         string `json:"text"`
}

// Load reads an ordered passage corpus from a JSON file.
func Load(path string) ([]domain.Passage, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var records []passageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	passages := make([]domain.Passage, len(records))
	for i, r := range records {
		passages[i] = domain.Passage{
			ID:           r.ID,
			ParentID:     r.ParentID,
			SectionTitle: r.SectionTitle,
			Text:         r.Text,
		}
	}
	return passages, nil
}
