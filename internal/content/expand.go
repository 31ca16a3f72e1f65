// ABOUTME: "Show more" expansion of case studies within an industry
// ABOUTME: Starts with three visible entries and reveals three more per step

package content

import (
	"strings"

	"github.com/kestreladvisory/site-console/internal/client"
)

const (
	// InitialVisible is how many case studies show before expanding
	InitialVisible = 3
	// ExpandStep is how many more each ShowMore reveals
	ExpandStep = 3
)

// Expander tracks how many of total entries are visible
type Expander struct {
	total   int
	visible int
}

// NewExpander starts with InitialVisible entries, capped at total
func NewExpander(total int) *Expander {
	e := &Expander{total: total}
	e.Collapse()
	return e
}

// Visible returns the number of entries to render
func (e *Expander) Visible() int {
	return e.visible
}

// HasMore reports whether ShowMore would reveal anything
func (e *Expander) HasMore() bool {
	return e.visible < e.total
}

// ShowMore reveals the next ExpandStep entries
func (e *Expander) ShowMore() {
	e.visible = min(e.visible+ExpandStep, e.total)
}

// ShowN expands until at least n entries are visible
func (e *Expander) ShowN(n int) {
	for e.visible < n && e.HasMore() {
		e.ShowMore()
	}
}

// Collapse returns to the initial view
func (e *Expander) Collapse() {
	e.visible = min(InitialVisible, e.total)
}

// FindIndustry looks an industry up by slug, ID or name (case-insensitive)
func FindIndustry(industries []client.Industry, key string) (client.Industry, bool) {
	for _, ind := range industries {
		if strings.EqualFold(ind.Slug, key) || ind.ID == key || strings.EqualFold(ind.Name, key) {
			return ind, true
		}
	}
	return client.Industry{}, false
}
