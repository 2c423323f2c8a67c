package table

import "github.com/DukeRupert/tradedesk/internal/domain"

// Links builds the URLs the table links to.
type Links struct {
	Sort    func(field string) string // re-sort request for a header
	Details func(id int64) string     // details modal for a row
	Target  string                    // htmx target of sort requests
}

func arrow(d domain.Direction) string {
	if d == domain.ASC {
		return "▲"
	}
	return "▼"
}

func ariaSort(d domain.Direction) string {
	if d == domain.ASC {
		return "ascending"
	}
	return "descending"
}

func sortableClass(on bool) string {
	if on {
		return "cursor-pointer select-none hover:text-blue-700"
	}
	return ""
}

func placeholderClass(on bool) string {
	if on {
		return "text-gray-400"
	}
	return ""
}

func primaryClass(on bool) string {
	if on {
		return "cursor-pointer font-medium text-blue-700 hover:underline"
	}
	return ""
}
