// Package selectbox implements the searchable dropdown that stands in for a
// native <select>. The widget state lives here; the component renders it
// together with the native element and a hidden input that always mirror the
// selection, so the surrounding form submits correctly with or without script.
package selectbox

import (
	"sort"
	"strings"
)

// Item is an option as supplied by the caller.
type Item struct {
	ID   string
	Name string
}

// Option is an option held by the widget.
type Option struct {
	ID     string
	Name   string
	search string
}

// NativeOption is an <option> of the mirrored native element.
type NativeOption struct {
	ID       string
	Name     string
	Selected bool
}

// Select is the state of one widget.
type Select struct {
	Name        string
	Multiple    bool
	Placeholder string

	options  []Option
	index    map[string]int
	selected map[string]bool
	open     bool
}

// New creates an empty widget bound to the form field name.
func New(name string, multiple bool) *Select {
	return &Select{
		Name:     name,
		Multiple: multiple,
		index:    make(map[string]int),
		selected: make(map[string]bool),
	}
}

// Populate replaces the options. Duplicate ids keep their first occurrence;
// blank ids are skipped. Selected ids that no longer exist are dropped.
func (s *Select) Populate(items []Item) {
	s.options = s.options[:0]
	s.index = make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = len(s.options)
		s.options = append(s.options, Option{
			ID:     id,
			Name:   it.Name,
			search: strings.ToLower(it.Name),
		})
	}
	for id := range s.selected {
		if _, ok := s.index[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Options returns the options in population order.
func (s *Select) Options() []Option {
	return append([]Option(nil), s.options...)
}

// SetValue selects exactly those ids that exist as options. A single-select
// widget keeps the first existing id.
func (s *Select) SetValue(ids []string) {
	s.selected = make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := s.index[id]; !ok {
			continue
		}
		s.selected[id] = true
		if !s.Multiple {
			return
		}
	}
}

// GetValue returns the selected ids in option order.
func (s *Select) GetValue() []string {
	ids := []string{}
	for _, o := range s.options {
		if s.selected[o.ID] {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// IsSelected reports whether id is selected.
func (s *Select) IsSelected(id string) bool {
	return s.selected[id]
}

// Reset clears the selection and closes the dropdown.
func (s *Select) Reset() {
	s.selected = make(map[string]bool)
	s.open = false
}

// Select picks id as if its option were clicked. In single mode the selection
// is replaced and the dropdown closes; in multi mode the option toggles.
// Unknown ids are ignored.
func (s *Select) Select(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	if !s.Multiple {
		s.selected = map[string]bool{id: true}
		s.open = false
		return true
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return true
}

// Remove deselects id, as done by a tag's remove button.
func (s *Select) Remove(id string) {
	delete(s.selected, id)
}

// Open shows the dropdown.
func (s *Select) Open() { s.open = true }

// Close hides the dropdown.
func (s *Select) Close() { s.open = false }

// IsOpen reports whether the dropdown is shown.
func (s *Select) IsOpen() bool { return s.open }

// Filter returns the options matching q, case-insensitively. Options whose
// name starts with q come first, then options that merely contain it; each
// group is ordered alphabetically. An empty q returns every option in
// population order.
func (s *Select) Filter(q string) []Option {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return s.Options()
	}

	var prefix, contains []Option
	for _, o := range s.options {
		switch {
		case strings.HasPrefix(o.search, q):
			prefix = append(prefix, o)
		case strings.Contains(o.search, q):
			contains = append(contains, o)
		}
	}
	byName := func(list []Option) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].search != list[j].search {
				return list[i].search < list[j].search
			}
			return list[i].Name < list[j].Name
		})
	}
	byName(prefix)
	byName(contains)
	return append(prefix, contains...)
}

// Commit handles Enter in the search box: the exact match wins, otherwise the
// first prefix match is picked. It returns the picked id, or false when
// nothing matches.
func (s *Select) Commit(q string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return "", false
	}

	var best *Option
	for i := range s.options {
		o := &s.options[i]
		if o.search == needle {
			best = o
			break
		}
	}
	if best == nil {
		matches := s.Filter(needle)
		if len(matches) == 0 || !strings.HasPrefix(matches[0].search, needle) {
			return "", false
		}
		best = &matches[0]
	}

	id := best.ID
	if s.Multiple && s.selected[id] {
		return id, true
	}
	s.Select(id)
	return id, true
}

// NativeOptions mirrors the selection onto the native element's options.
func (s *Select) NativeOptions() []NativeOption {
	out := make([]NativeOption, 0, len(s.options))
	for _, o := range s.options {
		out = append(out, NativeOption{ID: o.ID, Name: o.Name, Selected: s.selected[o.ID]})
	}
	return out
}

// HiddenValue is the hidden input's value: ids comma-joined in multi mode,
// the bare id in single mode.
func (s *Select) HiddenValue() string {
	return strings.Join(s.GetValue(), ",")
}

// Display is the text shown in the input in single mode.
func (s *Select) Display() string {
	if s.Multiple {
		return ""
	}
	for _, o := range s.options {
		if s.selected[o.ID] {
			return o.Name
		}
	}
	return ""
}

// Tags lists the selected options shown as removable tags in multi mode.
func (s *Select) Tags() []Option {
	if !s.Multiple {
		return nil
	}
	var tags []Option
	for _, o := range s.options {
		if s.selected[o.ID] {
			tags = append(tags, o)
		}
	}
	return tags
}

// ParseIDs splits a comma-joined id list.
func ParseIDs(raw string) []string {
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
