package retrieval

import (
	"strings"
	"unicode"
)

// Weight applied to terms reached through the synonym table rather than
// appearing in the text itself.
const synonymWeight = 0.7

// TermSet maps a normalized term to its weight multiplier. Terms present in
// the source text carry weight 1; synonym-derived variants carry less.
type TermSet map[string]float64

// add records a term, keeping the highest weight seen for it.
func (ts TermSet) add(term string, weight float64) {
	if w, ok := ts[term]; !ok || weight > w {
		ts[term] = weight
	}
}

// Tuning holds the swappable lexical tuning data: the stopword list and the
// synonym table. Both are domain configuration, not algorithm structure.
type Tuning struct {
	Stopwords []string            `yaml:"stopwords"`
	Synonyms  map[string][]string `yaml:"synonyms"`
}

// DefaultTuning returns the built-in stopword list and synonym table for
// municipal planning vocabulary. Deployments override both via config.
func DefaultTuning() Tuning {
	return Tuning{
		Stopwords: []string{
			"a", "an", "and", "are", "as", "at", "be", "but", "by", "can",
			"do", "does", "for", "from", "has", "have", "how", "i", "if",
			"in", "is", "it", "its", "may", "me", "my", "no", "not", "of",
			"on", "or", "shall", "should", "that", "the", "their", "there",
			"these", "this", "to", "was", "we", "were", "what", "when",
			"where", "which", "who", "why", "will", "with", "would", "you",
			"your",
		},
		Synonyms: map[string][]string{
			"adu":      {"accessory", "dwelling"},
			"bike":     {"bicycle", "cycling"},
			"building": {"structure", "construction"},
			"car":      {"vehicle", "automobile", "parking"},
			"home":     {"house", "housing", "residential", "dwelling"},
			"park":     {"parks", "greenspace", "recreation"},
			"shop":     {"retail", "commercial", "store"},
			"sign":     {"signage"},
			"street":   {"road", "roadway", "thoroughfare"},
			"tree":     {"trees", "canopy", "vegetation"},
			"walk":     {"walking", "pedestrian", "sidewalk"},
			"zone":     {"zoning", "district"},
		},
	}
}

// Normalizer turns free text into comparable weighted term sets. It is
// immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
	// groups maps every term that appears anywhere in the synonym table to
	// its full variant group. Groups are closed under the symmetric and
	// transitive closure of the table, so expansion is idempotent.
	groups map[string][]string
}

// NewNormalizer builds a normalizer from tuning data.
func NewNormalizer(t Tuning) *Normalizer {
	stop := make(map[string]struct{}, len(t.Stopwords))
	for _, w := range t.Stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}
	return &Normalizer{
		stopwords: stop,
		groups:    closeSynonyms(t.Synonyms),
	}
}

// closeSynonyms merges the synonym table into symmetric, transitive variant
// groups. Every member of a group maps to the same group, which makes
// repeated expansion a no-op.
func closeSynonyms(table map[string][]string) map[string][]string {
	parent := make(map[string]string)

	var find func(s string) string
	find = func(s string) string {
		p, ok := parent[s]
		if !ok {
			parent[s] = s
			return s
		}
		if p == s {
			return s
		}
		root := find(p)
		parent[s] = root
		return root
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for canonical, related := range table {
		c := strings.ToLower(strings.TrimSpace(canonical))
		if c == "" {
			continue
		}
		for _, r := range related {
			r = strings.ToLower(strings.TrimSpace(r))
			if r != "" {
				union(c, r)
			}
		}
	}

	members := make(map[string][]string)
	for term := range parent {
		root := find(term)
		members[root] = append(members[root], term)
	}

	groups := make(map[string][]string, len(parent))
	for _, group := range members {
		for _, term := range group {
			groups[term] = group
		}
	}
	return groups
}

// ExtractTerms tokenizes and normalizes text into a weighted term set:
// lowercase, punctuation stripped, stopwords dropped, plural/singular
// variants and synonyms unioned in. Pure and total; arbitrary input,
// including empty or non-alphabetic text, yields a (possibly empty) set
// without error.
func (n *Normalizer) ExtractTerms(text string) TermSet {
	terms := make(TermSet)
	for _, tok := range tokenize(text) {
		if _, ok := n.stopwords[tok]; ok {
			continue
		}
		terms.add(tok, 1)
		for _, v := range pluralVariants(tok) {
			if _, ok := n.stopwords[v]; !ok {
				terms.add(v, 1)
			}
		}
	}
	return n.ExpandTerms(terms)
}

// ExpandTerms broadens a term set with the synonym table. Idempotent:
// expanding an already-expanded set yields the same set, because variant
// groups are closed at construction time.
func (n *Normalizer) ExpandTerms(terms TermSet) TermSet {
	out := make(TermSet, len(terms))
	for term, w := range terms {
		out.add(term, w)
	}
	for term, w := range terms {
		for _, v := range n.groups[term] {
			if v == term {
				continue
			}
			out.add(v, synonymWeight*w)
		}
	}
	return out
}

// WeightedFrequencies returns per-term occurrence weights for passage text.
// Each normalized token occurrence contributes 1 to its own term and its
// plural variants, and synonymWeight to its synonym group members. Unlike
// ExtractTerms, repeated occurrences accumulate.
func (n *Normalizer) WeightedFrequencies(text string) (TermSet, int) {
	freq := make(TermSet)
	kept := 0
	for _, tok := range tokenize(text) {
		if _, ok := n.stopwords[tok]; ok {
			continue
		}
		kept++
		freq[tok]++
		for _, v := range pluralVariants(tok) {
			if _, ok := n.stopwords[v]; !ok {
				freq[v]++
			}
		}
		for _, g := range n.groups[tok] {
			if g != tok {
				freq[g] += synonymWeight
			}
		}
	}
	return freq, kept
}

// tokenize lowercases and splits on anything that is not a letter, digit or
// hyphen. Single-character tokens carry no matching signal and are dropped.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	out := tokens[:0]
	for _, t := range tokens {
		t = strings.Trim(t, "-")
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}

// pluralVariants applies the simple trailing-suffix rules: add and remove
// "s"/"es". No full morphological analysis.
func pluralVariants(term string) []string {
	variants := make([]string, 0, 3)
	switch {
	case strings.HasSuffix(term, "es") && len(term) > 3:
		variants = append(variants, term[:len(term)-2], term[:len(term)-1])
	case strings.HasSuffix(term, "s") && len(term) > 2:
		variants = append(variants, term[:len(term)-1])
	}
	if !strings.HasSuffix(term, "s") {
		variants = append(variants, term+"s", term+"es")
	}
	return variants
}
