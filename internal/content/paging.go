// ABOUTME: Page-number pagination over an in-memory slice
// ABOUTME: Out-of-range inputs are normalized instead of rejected

package content

// DefaultPerPage is used when the caller passes a non-positive page size
const DefaultPerPage = 6

// MaxPerPage caps the page size
const MaxPerPage = 100

// Page is one slice of a larger result
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether a later page exists
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether an earlier page exists
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// Paginate returns the 1-based page of items. page is clamped into
// [1, TotalPages]; an empty list yields page 1 of 0.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage

	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pageItems := items[start:end]
	if pageItems == nil {
		pageItems = make([]T, 0)
	}

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
