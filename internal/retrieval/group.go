package retrieval

import (
	"sort"

	"github.com/citydesk/planqa/internal/domain"
)

// GroupBySection collapses ranked candidates into section-level groups.
// Within a group the candidates' relative order is preserved. Groups are
// ordered by their best member's score descending, ties by section ID
// string comparison. Every input candidate appears in exactly one group.
func GroupBySection(candidates []domain.ScoredCandidate) []domain.ResultGroup {
	byID := make(map[string]int, len(candidates))
	groups := make([]domain.ResultGroup, 0, len(candidates))

	for _, c := range candidates {
		idx, ok := byID[c.Passage.ParentID]
		if !ok {
			idx = len(groups)
			byID[c.Passage.ParentID] = idx
			groups = append(groups, domain.ResultGroup{
				SectionID:    c.Passage.ParentID,
				SectionTitle: c.Passage.SectionTitle,
			})
		}
		groups[idx].Members = append(groups[idx].Members, c)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		si, sj := groups[i].TopScore(), groups[j].TopScore()
		if si != sj {
			return si > sj
		}
		return groups[i].SectionID < groups[j].SectionID
	})

	return groups
}
