package controller

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/table"
)

// Page size bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// State is the list position of one page: zero-based page, size, sort and
// search term. It travels in the URL so every list view is linkable.
type State struct {
	Page      int
	Size      int
	Sort      string
	Direction domain.Direction
	Query     string
}

// DefaultState is the first page of kind in its default order.
func DefaultState(kind domain.EntityKind, size int) State {
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	def := table.DefaultSort(kind)
	return State{Size: size, Sort: def.Field, Direction: def.Direction}
}

// ParseState reads the list position from query values. Missing or invalid
// values take their defaults, and a sort field outside the kind's allow-list
// falls back to the default sort.
func ParseState(kind domain.EntityKind, q url.Values, defaultSize int) State {
	s := DefaultState(kind, defaultSize)

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		s.Page = p
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 && n <= MaxPageSize {
		s.Size = n
	}
	if f := q.Get("sort"); f != "" && kind.CanSort(f) {
		s.Sort = f
		s.Direction = domain.ParseDirection(q.Get("direction"), domain.DefaultDirection(f))
	}
	s.Query = strings.TrimSpace(q.Get("q"))
	return s
}

// SortState returns the table sort of s.
func (s State) SortState() table.SortState {
	return table.SortState{Field: s.Sort, Direction: s.Direction}
}

// WithSort applies a click on the header of field. Switching to another
// column returns to the first page; clicking an unlisted column changes nothing.
func (s State) WithSort(kind domain.EntityKind, field string) State {
	next, reset := s.SortState().Toggle(kind, field)
	s.Sort, s.Direction = next.Field, next.Direction
	if reset {
		s.Page = 0
	}
	return s
}

// WithPage moves to page p, never below the first page.
func (s State) WithPage(p int) State {
	s.Page = max(p, 0)
	return s
}

// WithQuery sets the search term and returns to the first page.
func (s State) WithQuery(q string) State {
	s.Query = strings.TrimSpace(q)
	s.Page = 0
	return s
}

// Values encodes s as query values.
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("size", strconv.Itoa(s.Size))
	if s.Sort != "" {
		v.Set("sort", s.Sort)
		v.Set("direction", string(s.Direction))
	}
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	return v
}

// Encode is the query string of s.
func (s State) Encode() string {
	return s.Values().Encode()
}
