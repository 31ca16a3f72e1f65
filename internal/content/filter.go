// ABOUTME: Client-side filtering of insights by category and search text
// ABOUTME: Category match is case-insensitive; search covers title and summary

package content

import (
	"sort"
	"strings"

	"github.com/kestreladvisory/site-console/internal/client"
)

// AllCategories selects every insight
const AllCategories = "all"

// InsightQuery narrows an insight list
type InsightQuery struct {
	Category string
	Search   string
}

// FilterInsights returns the insights matching q, preserving order
func FilterInsights(items []client.Insight, q InsightQuery) []client.Insight {
	category := strings.TrimSpace(q.Category)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]client.Insight, 0, len(items))
	for _, it := range items {
		if category != "" && !strings.EqualFold(category, AllCategories) && !strings.EqualFold(it.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Summary), search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Categories returns the distinct non-empty categories, sorted.
// Spellings differing only in case count once; the first one seen is kept.
func Categories(items []client.Insight) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		key := strings.ToLower(it.Category)
		if it.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}
