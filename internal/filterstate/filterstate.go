// Package filterstate manages the active list filters of a session.
//
// "No filters" is represented by the absence of the persisted entry, never by
// an empty object, so a later default-filter migration can tell "never
// filtered" apart from "explicitly cleared".
package filterstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/session"
)

// multiValueKeys are static keys fed by custom selects, whose hidden input
// carries a comma-joined value.
var multiValueKeys = map[string]bool{
	domain.FilterSource:  true,
	domain.FilterUser:    true,
	domain.FilterProduct: true,
}

// Manager reads and writes one session's filter state.
type Manager struct {
	store  session.Scoped
	logger *slog.Logger
}

// New creates a manager over a session-scoped store.
func New(store session.Scoped, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// Restore reads the persisted filters. Keys are matched case-insensitively
// against the static keys and the known dynamic keys; filters for keys that
// no longer exist are dropped.
func (m *Manager) Restore(ctx context.Context, known []string) (domain.Filters, error) {
	raw, ok, err := m.store.Get(ctx, session.KeySelectedFilters)
	if err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return domain.Filters{}, nil
	}

	stored, err := decode(raw)
	if err != nil {
		m.logger.Warn("discarding unreadable filter state", "error", err)
		return domain.Filters{}, m.store.Delete(ctx, session.KeySelectedFilters)
	}

	canonical := make(map[string]string, len(domain.StaticFilterKeys)+len(known))
	for _, k := range domain.StaticFilterKeys {
		canonical[strings.ToLower(k)] = k
	}
	for _, k := range known {
		canonical[strings.ToLower(k)] = k
	}

	out := domain.Filters{}
	for _, key := range sortedKeys(stored) {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		out[name] = appendUnique(out[name], stored[key]...)
	}
	return out.Normalize(), nil
}

// Update re-derives the full filter map from a submitted filter form, persists
// it and returns it with its active count. Fields are the filterable fields of
// the current entity type; form keys that belong to neither a static filter
// nor one of those fields are ignored.
func (m *Manager) Update(ctx context.Context, form url.Values, fields []domain.FieldDefinition) (domain.Filters, int, error) {
	f := domain.Filters{}

	for _, key := range domain.StaticFilterKeys {
		f[key] = formValues(form, key, multiValueKeys[key])
	}
	for _, def := range fields {
		split := def.Kind().Type() == domain.FieldTypeList
		for _, key := range domain.FilterKeysFor(def) {
			f[key] = formValues(form, key, split)
		}
	}

	f = f.Normalize()
	if err := m.save(ctx, f); err != nil {
		return nil, 0, err
	}
	return f, ActiveCount(f), nil
}

// Clear removes every filter. The persisted entry is deleted outright.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, session.KeySelectedFilters); err != nil {
		return fmt.Errorf("clear filters: %w", err)
	}
	return nil
}

// ChangeEntityType keeps only the filters that make sense across entity
// types (date ranges and source); field-specific filters are dropped because
// field names are not stable across types.
func (m *Manager) ChangeEntityType(ctx context.Context) (domain.Filters, error) {
	current, err := m.Restore(ctx, nil)
	if err != nil {
		return nil, err
	}
	kept := current.Only(domain.PreservedFilterKeys)
	if err := m.save(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// ActiveCount is the number of active filter values; zero hides the badge.
func ActiveCount(f domain.Filters) int {
	return f.Count()
}

func (m *Manager) save(ctx context.Context, f domain.Filters) error {
	if len(f) == 0 {
		return m.Clear(ctx)
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	if err := m.store.Set(ctx, session.KeySelectedFilters, string(raw)); err != nil {
		return fmt.Errorf("save filters: %w", err)
	}
	return nil
}

// formValues collects the distinct submitted values of key. Comma-joined
// values are split when split is set.
func formValues(form url.Values, key string, split bool) []string {
	var out []string
	for _, v := range form[key] {
		if !split {
			out = appendUnique(out, v)
			continue
		}
		for _, part := range strings.Split(v, ",") {
			out = appendUnique(out, part)
		}
	}
	return out
}

// decode accepts values stored as arrays, single strings or numbers.
func decode(raw string) (map[string][]string, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(generic))
	for k, v := range generic {
		var list []any
		if err := json.Unmarshal(v, &list); err != nil {
			var single any
			if err := json.Unmarshal(v, &single); err != nil {
				continue
			}
			list = []any{single}
		}
		for _, item := range list {
			switch x := item.(type) {
			case string:
				out[k] = append(out[k], x)
			case float64, bool:
				out[k] = append(out[k], fmt.Sprint(x))
			}
		}
	}
	return out, nil
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func sortedKeys(m map[string][]string) []string {
	return domain.Filters(m).Keys()
}
