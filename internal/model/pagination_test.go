package model

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"defaults when empty", "", "", 1, 20},
		{"explicit values", "3", "10", 3, 10},
		{"non-numeric falls back", "abc", "xyz", 1, 20},
		{"zero falls back", "0", "0", 1, 20},
		{"negative falls back", "-2", "-5", 1, 20},
		{"limit capped", "1", "1000", 1, MaxPageLimit},
		{"limit at cap", "2", "100", 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit)
			if p.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tt.wantLimit)
			}
		})
	}
}

func TestPagination_Offset(t *testing.T) {
	p := Pagination{Page: 3, Limit: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("offset = %d, want 40", got)
	}
}

// Absurd page numbers must still address a page past the end, never wrap to
// a negative OFFSET or fall back to page 1.
func TestPagination_HugePage(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		limit string
	}{
		{"near max int64", strconv.Itoa(1 << 62), "100"},
		{"max int", strconv.Itoa(math.MaxInt), "20"},
		{"beyond int64", "99999999999999999999999", "20"},
		{"default limit", strconv.Itoa(1 << 40), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit)

			offset := p.Offset()
			if offset < 0 {
				t.Fatalf("offset = %d for page %d limit %d, want >= 0", offset, p.Page, p.Limit)
			}
			if offset > math.MaxInt32 {
				t.Errorf("offset = %d, want <= %d", offset, math.MaxInt32)
			}
			if p.Page <= 1 {
				t.Errorf("page = %d, want a page past the end", p.Page)
			}
			meta := NewPageMeta(p, 45)
			if meta.TotalCount != 45 || meta.HasNextPage {
				t.Errorf("meta = %+v, want totalCount 45 and no next page", meta)
			}
		})
	}

	raw := Pagination{Page: math.MaxInt, Limit: 100}
	if got := raw.Offset(); got < 0 {
		t.Errorf("offset of unnormalized page = %d, want >= 0", got)
	}
}

// 45 rows at limit 20 are served as pages of 20, 20, 5 and then empty.
func TestNewPageMeta_FortyFiveRows(t *testing.T) {
	for page, wantNext := range map[int]bool{1: true, 2: true, 3: false, 4: false} {
		meta := NewPageMeta(Pagination{Page: page, Limit: 20}, 45)
		if meta.TotalCount != 45 {
			t.Errorf("page %d: totalCount = %d, want 45", page, meta.TotalCount)
		}
		if meta.TotalPages != 3 {
			t.Errorf("page %d: totalPages = %d, want 3", page, meta.TotalPages)
		}
		if meta.HasNextPage != wantNext {
			t.Errorf("page %d: hasNextPage = %t, want %t", page, meta.HasNextPage, wantNext)
		}
	}
}

func TestNewPageMeta_Empty(t *testing.T) {
	meta := NewPageMeta(Pagination{Page: 1, Limit: 20}, 0)
	if meta.TotalPages != 0 || meta.HasNextPage {
		t.Errorf("unexpected meta for empty set: %+v", meta)
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("error = %v, want ErrInvalidID", err)
	}

	id, err := ParseID(" 3f2504e0-4f89-11d3-9a0c-0305e82c3301 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "3f2504e0-4f89-11d3-9a0c-0305e82c3301" {
		t.Errorf("id = %s", id)
	}
}

func TestVideoListParams_SortClause(t *testing.T) {
	tests := []struct {
		sortBy, sortType, want string
	}{
		{"", "", "v.created_at DESC, v.id DESC"},
		{"views", "asc", "v.views ASC, v.id ASC"},
		{"title", "DESC", "v.title DESC, v.id DESC"},
		{"password; DROP TABLE users", "asc", "v.created_at ASC, v.id ASC"},
	}
	for _, tt := range tests {
		p := VideoListParams{SortBy: tt.sortBy, SortType: tt.sortType}
		if got := p.SortClause(); got != tt.want {
			t.Errorf("SortClause(%q, %q) = %q, want %q", tt.sortBy, tt.sortType, got, tt.want)
		}
	}
}
