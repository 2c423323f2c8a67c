package domain

import (
	"sort"
	"strings"
)

// Static filter keys. Everything else in a Filters map is a dynamic field name,
// optionally suffixed with From/To for ranged field types.
const (
	FilterCreatedAtFrom = "createdAtFrom"
	FilterCreatedAtTo   = "createdAtTo"
	FilterUpdatedAtFrom = "updatedAtFrom"
	FilterUpdatedAtTo   = "updatedAtTo"
	FilterSource        = "source"
	FilterUser          = "user"
	FilterProduct       = "product"
	FilterShowInactive  = "showInactive"
)

// StaticFilterKeys lists every static key in canonical spelling.
var StaticFilterKeys = []string{
	FilterCreatedAtFrom,
	FilterCreatedAtTo,
	FilterUpdatedAtFrom,
	FilterUpdatedAtTo,
	FilterSource,
	FilterUser,
	FilterProduct,
	FilterShowInactive,
}

// PreservedFilterKeys survive an entity type change; dynamic keys never do.
var PreservedFilterKeys = []string{
	FilterCreatedAtFrom,
	FilterCreatedAtTo,
	FilterUpdatedAtFrom,
	FilterUpdatedAtTo,
	FilterSource,
}

// DateFilterKeys are the static keys rendered as date inputs.
var DateFilterKeys = []string{
	FilterCreatedAtFrom,
	FilterCreatedAtTo,
	FilterUpdatedAtFrom,
	FilterUpdatedAtTo,
}

// Filters maps a filter key to its selected values.
type Filters map[string][]string

// IsBlankFilterValue reports whether v must never be stored as a filter value.
func IsBlankFilterValue(v string) bool {
	s := strings.TrimSpace(v)
	return s == "" || s == "null"
}

// Normalize returns a copy without blank or "null" values and without empty entries.
func (f Filters) Normalize() Filters {
	out := make(Filters, len(f))
	for k, vals := range f {
		if strings.TrimSpace(k) == "" {
			continue
		}
		var clean []string
		for _, v := range vals {
			if IsBlankFilterValue(v) {
				continue
			}
			clean = append(clean, strings.TrimSpace(v))
		}
		if len(clean) > 0 {
			out[k] = clean
		}
	}
	return out
}

// Count is the number of active filter values across all keys.
func (f Filters) Count() int {
	n := 0
	for _, vals := range f {
		n += len(vals)
	}
	return n
}

// Keys returns the keys in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Only returns the subset of f whose keys are in keep.
func (f Filters) Only(keep []string) Filters {
	out := Filters{}
	for _, k := range keep {
		if vals, ok := f[k]; ok && len(vals) > 0 {
			out[k] = append([]string(nil), vals...)
		}
	}
	return out
}

// FilterKeysFor returns the filter keys a field contributes: its name, or
// name+From / name+To for ranged types.
func FilterKeysFor(def FieldDefinition) []string {
	if def.Kind().Ranged() {
		return []string{def.Name + "From", def.Name + "To"}
	}
	return []string{def.Name}
}
