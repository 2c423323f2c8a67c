// Package pagination provides the shared pager of list pages.
package pagination

import (
	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/templ/shared"
)

// Labeler localizes the summary line.
type Labeler interface {
	T(key string, args ...any) string
}

// State is the rendered pager. PageIndex is zero-based; DisplayPage is what
// the user sees.
type State struct {
	Total        int64
	PageCount    int
	PageIndex    int
	DisplayPage  int
	PrevDisabled bool
	NextDisabled bool
	Summary      string
}

// Config describes where pager buttons point.
type Config struct {
	PageURL  func(pageIndex int) string // e.g. "/clients/table?page=2"
	TargetID string                     // htmx target, e.g. "list"
	PushURL  bool                       // update browser URL with hx-push-url
}

// Render computes the pager for a page envelope. The buttons are the only
// clamp on the page index: previous is disabled on the first page and next on
// the last one, and both are disabled when there are no pages at all.
func Render(total int64, pageCount, pageIndex int, labels Labeler) State {
	s := State{
		Total:        total,
		PageCount:    pageCount,
		PageIndex:    pageIndex,
		PrevDisabled: pageIndex <= 0,
		NextDisabled: pageIndex >= pageCount-1,
	}
	if pageCount > 0 {
		s.DisplayPage = pageIndex + 1
	}
	if labels != nil {
		if total == 0 {
			s.Summary = labels.T(apiclient.MsgNoRecords)
		} else {
			s.Summary = labels.T(apiclient.MsgSummary, total, s.DisplayPage, pageCount)
		}
	}
	return s
}

// PageRange returns a slice of page numbers for pagination display.
// Returns -1 for ellipsis positions.
func PageRange(currentPage, totalPages int) []int {
	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := []int{1}

	start := currentPage - 1
	end := currentPage + 1

	if start <= 2 {
		start = 2
	}
	if end >= totalPages {
		end = totalPages - 1
	}

	if start > 2 {
		pages = append(pages, -1) // ellipsis
	}

	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if end < totalPages-1 {
		pages = append(pages, -1) // ellipsis
	}

	if totalPages > 1 {
		pages = append(pages, totalPages)
	}

	return pages
}

func buttonClass(current bool) string {
	c := ""
	if current {
		c = "bg-blue-600 text-white hover:bg-blue-600"
	}
	return shared.Classes(
		"rounded px-2.5 py-1 text-sm text-gray-700 hover:bg-gray-100",
		c,
		"disabled:cursor-not-allowed disabled:opacity-40 disabled:hover:bg-transparent",
	)
}
