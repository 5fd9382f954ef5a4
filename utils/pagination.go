package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/upb/readers-hub/repositories"
)

// Pagination is a validated page request
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows skipped before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ListOptions converts the page into repository bounds
func (p Pagination) ListOptions() repositories.ListOptions {
	return repositories.ListOptions{Limit: p.PageSize, Offset: p.Offset()}
}

// ParsePagination reads page and page_size from the query string.
// page_size above max is clamped; non-numeric or non-positive values are rejected.
func ParsePagination(r *http.Request, defaultSize, maxSize int) (Pagination, error) {
	p := Pagination{Page: 1, PageSize: defaultSize}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page %q", raw)
		}
		p.Page = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page_size %q", raw)
		}
		p.PageSize = n
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p, nil
}
