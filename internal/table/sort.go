package table

import "github.com/DukeRupert/tradedesk/internal/domain"

// SortState is the active sort of a list.
type SortState struct {
	Field     string
	Direction domain.Direction
}

// DefaultSort is the initial sort of kind.
func DefaultSort(kind domain.EntityKind) SortState {
	return SortState{Field: kind.DefaultSort, Direction: domain.DefaultDirection(kind.DefaultSort)}
}

// Toggle handles a click on the header of field. Clicking the active column
// flips the direction. Clicking another allow-listed column switches to it
// with its default direction and reports resetPage. Fields outside the
// allow-list leave the state unchanged.
func (s SortState) Toggle(kind domain.EntityKind, field string) (next SortState, resetPage bool) {
	if !kind.CanSort(field) {
		return s, false
	}
	if field == s.Field {
		return SortState{Field: field, Direction: s.Direction.Flip()}, false
	}
	return SortState{Field: field, Direction: domain.DefaultDirection(field)}, true
}
