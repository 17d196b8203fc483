package domain

// Pagination selects a page window over a listing. The zero value requests
// every matching row.
type Pagination struct {
	Limit  int
	Offset int
	Paged  bool
}

// PageWindow returns a bounded pagination spec. Limit and Offset must be >= 0.
func PageWindow(limit, offset int) Pagination {
	return Pagination{Limit: limit, Offset: offset, Paged: true}
}

// Unbounded returns a pagination spec matching every row.
func Unbounded() Pagination {
	return Pagination{}
}

// Page is one window of a listing. TotalCount is the size of the whole
// filtered set, and HasMore is derived from it, never stored.
type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"totalCount"`
	HasMore    bool  `json:"hasMore"`
}

// NewPage wraps a result window. data must never be nil so an empty set
// serializes as [] rather than null.
func NewPage[T any](data []T, total int64, p Pagination) Page[T] {
	if data == nil {
		data = []T{}
	}
	hasMore := false
	if p.Paged {
		hasMore = int64(p.Offset+p.Limit) < total
	}
	return Page[T]{Data: data, TotalCount: total, HasMore: hasMore}
}
