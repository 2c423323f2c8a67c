package selectbox

import (
	"fmt"
	"net/url"
	"time"
)

// Query parameters understood by the widget endpoint.
const (
	ParamSelected = "selected"
	ParamQuery    = "q"
	ParamPick     = "pick"
	ParamRemove   = "remove"
	ParamCommit   = "commit"
)

// DefaultDebounce is the delay applied to search keystrokes.
const DefaultDebounce = 200 * time.Millisecond

// View configures how a widget renders.
type View struct {
	Endpoint string        // widget endpoint, e.g. "/clients/select/source"
	Label    string        // visible label
	Debounce time.Duration // search debounce
	Include  string        // extra hx-include selector, e.g. "#filter-form"
}

// Apply updates the widget from the endpoint's query parameters: restores the
// selection, then applies a pick, a tag removal or an Enter commit.
func (s *Select) Apply(q url.Values) {
	s.SetValue(ParseIDs(q.Get(ParamSelected)))
	switch {
	case q.Has(ParamPick):
		s.Open()
		s.Select(q.Get(ParamPick))
	case q.Has(ParamRemove):
		s.Remove(q.Get(ParamRemove))
	case q.Has(ParamCommit):
		s.Open()
		if _, ok := s.Commit(q.Get(ParamQuery)); ok && !s.Multiple {
			s.Close()
		}
	}
}

func (s *Select) domID() string {
	return "select-" + s.Name
}

func (s *Select) url(v View, extra ...string) string {
	q := url.Values{}
	q.Set(ParamSelected, s.HiddenValue())
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return v.Endpoint + "?" + q.Encode()
}

func alpineData(open bool) string {
	return fmt.Sprintf("{open: %t}", open)
}

func searchTrigger(v View) string {
	d := v.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	return fmt.Sprintf("input changed delay:%dms, focus once", d.Milliseconds())
}

// commitScript submits the typed text on Enter so an exact match is picked.
func (s *Select) commitScript(v View) string {
	return fmt.Sprintf(
		"htmx.ajax('GET', %q + '&%s=1&%s=' + encodeURIComponent($el.value), {target: '#%s', swap: 'outerHTML'})",
		s.url(v), ParamCommit, ParamQuery, s.domID())
}

func selectedClass(on bool) string {
	if on {
		return "bg-blue-100 font-medium"
	}
	return ""
}
