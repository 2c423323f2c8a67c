// Package records renders the list pages shared by every entity kind.
package records

import (
	"fmt"
	"sort"
	"time"

	"github.com/DukeRupert/tradedesk/internal/modal"
	"github.com/DukeRupert/tradedesk/internal/templ/shared"
	"github.com/a-h/templ"
)

// Element ids the list page swaps.
const (
	RegionID      = "list-region"
	SearchFormID  = "list-search"
	FilterFormID  = "filter-form"
	FilterBadgeID = "filter-badge"
)

// ChangedEvent is triggered after a record changed; the region reloads itself.
const ChangedEvent = "list-changed"

// ListPageData contains data for a list page
type ListPageData struct {
	Layout    shared.LayoutData
	Heading   string
	TypeName  string // entity type of the list, empty for untyped kinds
	Search    SearchData
	Filters   FilterPanelData
	Region    RegionData
	Export    *ExportData // nil when the user may not export
	CSRFToken string
}

// SearchData is the search box and the hidden list position it submits with.
type SearchData struct {
	Action      string // table partial endpoint
	Query       string
	Hidden      map[string]string // size, sort, direction, type
	Debounce    time.Duration
	Placeholder string
}

// RegionData is the swappable table region.
type RegionData struct {
	Table     templ.Component
	Pager     templ.Component
	ReloadURL string // fetched again on ChangedEvent
}

// FilterPanelData contains the filter form.
type FilterPanelData struct {
	Action      string
	ClearAction string
	Count       int
	Title       string
	ApplyLabel  string
	ClearLabel  string
	Dates       []InputFilter
	Selects     []templ.Component
	Inputs      []InputFilter
	Ranges      []RangeFilter
	Checks      []CheckFilter
}

// InputFilter is a single input bound to one filter key.
type InputFilter struct {
	Key   string
	Label string
	Type  string // "date", "text", "tel"
	Value string
}

// RangeFilter is a From/To pair for a ranged field.
type RangeFilter struct {
	Label     string
	Type      string // "date" or "number"
	From, To  InputFilter
	FromLabel string
	ToLabel   string
}

// CheckFilter is a checkbox filter.
type CheckFilter struct {
	Key     string
	Label   string
	Checked bool
}

// ExportData is the export button.
type ExportData struct {
	Action string
	Label  string
}

// DetailsData contains the details dialog of one record.
type DetailsData struct {
	Title       string
	Static      []modal.FieldRow
	Fields      []modal.FieldRow
	DeleteURL   string // empty when the user may not delete
	DeleteLabel string
	ConfirmText string
	CloseLabel  string
	Timings     modal.Timings
}

func (d DetailsData) footer() templ.Component {
	if d.DeleteURL == "" {
		return nil
	}
	return deleteButton(d)
}

func searchTrigger(s SearchData) string {
	return fmt.Sprintf("input changed delay:%dms from:find input[name=q], search, submit", s.Debounce.Milliseconds())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
