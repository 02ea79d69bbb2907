package model

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Pagination defaults. Limit is capped so a single request cannot ask for an
// unbounded page.
const (
	DefaultPage      = 1
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrInvalidID is returned when a path or body identifier is not a valid UUID.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses an entity identifier.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination coerces raw query values. Non-numeric or non-positive values
// fall back to the defaults; limit is clamped to MaxPageLimit. A page too
// large to address is clamped to the last addressable page, which is past the
// end of any real result set.
func NewPagination(rawPage, rawLimit string) Pagination {
	rawPage = strings.TrimSpace(rawPage)
	page, err := strconv.Atoi(rawPage)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(rawPage, "-"):
		page = math.MaxInt
	case err != nil || page <= 0:
		page = DefaultPage
	}

	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil || limit <= 0 {
		limit = DefaultPageLimit
	}

	return Pagination{Page: page, Limit: limit}.Normalize()
}

// Normalize applies the same rules as NewPagination to an already-built value.
func (p Pagination) Normalize() Pagination {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	// Keeps (Page-1)*Limit within an int32 OFFSET.
	if maxPage := math.MaxInt32 / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// Offset is the number of rows to skip for this page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// PageMeta is embedded in every paginated response.
type PageMeta struct {
	TotalCount  int  `json:"totalCount"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
}

// NewPageMeta builds page metadata for a total row count.
func NewPageMeta(p Pagination, totalCount int) PageMeta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (totalCount + p.Limit - 1) / p.Limit
	}
	return PageMeta{
		TotalCount:  totalCount,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
	}
}
