package models

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListFilter narrows and pages donation listings. Results are newest-first.
type ListFilter struct {
	Status   *Status
	Category *Category
	City     string
	State    string
	Page     int
	Limit    int
}

// Normalize clamps paging to sane bounds. Page is 1-based.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return f
}

// Offset converts the 1-based page to a row offset.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
