package variables

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// BuildSuggestions returns autocomplete candidates for keys: each unique,
// non-empty key yields "{{key}}" then "${key}", in input order
func BuildSuggestions(keys []string) []string {
	unique := dedupeKeys(keys)
	out := make([]string, 0, len(unique)*2)
	for _, k := range unique {
		out = append(out, "{{"+k+"}}", "${"+k+"}")
	}
	return out
}

// FilterSuggestions ranks keys against a partially typed query and returns
// suggestions for the matches, best first. A leading "{{" or "${" in the
// query is ignored. An empty query returns BuildSuggestions(keys).
func FilterSuggestions(query string, keys []string) []string {
	q := strings.TrimSpace(query)
	q = strings.TrimPrefix(q, "{{")
	q = strings.TrimPrefix(q, "${")
	q = strings.TrimSpace(q)
	if q == "" {
		return BuildSuggestions(keys)
	}

	unique := dedupeKeys(keys)
	matches := fuzzy.Find(q, unique)
	ranked := make([]string, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, m.Str)
	}
	return BuildSuggestions(ranked)
}

func dedupeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
