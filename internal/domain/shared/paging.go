package shared

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter carries the paging and ordering of a list query. OrderBy is checked
// against a per-table allow list by the repositories.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Normalize returns f with page numbers, page size and direction forced into
// range. Ordering defaults to newest first.
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		f.OrderDir = "asc"
	} else {
		f.OrderDir = "desc"
	}
	if f.OrderBy == "" {
		f.OrderBy = "created_at"
	}
	return f
}

func (f Filter) Offset() int { return (f.Page - 1) * f.PageSize }

// PageCount is the number of pages needed for total rows. A non-positive
// pageSize counts as DefaultPageSize.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
