package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds limit/offset pagination extracted from query strings.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// DefaultParams returns the first page with DefaultLimit.
func DefaultParams() Params {
	return Params{Limit: DefaultLimit}
}

// FromRequest reads ?limit= and ?offset=. Invalid values fall back to the
// defaults; limit is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	}
	return p
}

// Next returns the params for the following page.
func (p Params) Next() Params {
	return Params{Limit: p.Limit, Offset: p.Offset + p.Limit}
}

// Prev returns the params for the previous page, stopping at offset 0.
func (p Params) Prev() Params {
	return Params{Limit: p.Limit, Offset: max(0, p.Offset-p.Limit)}
}

// Page is the 1-based page number of p.
func (p Params) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// TotalPages returns the number of pages needed for total items.
func (p Params) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}
