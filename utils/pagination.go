package utils

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a normalised page request.
type Page struct {
	Page  int64
	Limit int64
}

func (p Page) Skip() int64 { return (p.Page - 1) * p.Limit }

// ParsePage reads 1-based page and limit query values. Missing or
// non-positive values fall back to the defaults and limit is capped.
func ParsePage(pageStr, limitStr string) Page {
	page, err := strconv.ParseInt(pageStr, 10, 64)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Pages is the number of pages needed for total items.
func (p Page) Pages(total int64) int64 {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
