package filterstate

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, session.Scoped) {
	t.Helper()
	scoped := session.Scope(session.NewMemoryStore(0), "ns")
	return New(scoped, slog.New(slog.NewTextHandler(io.Discard, nil))), scoped
}

var fields = []domain.FieldDefinition{
	{ID: 1, Name: "segment", Type: domain.FieldTypeList, Filterable: true},
	{ID: 2, Name: "weight", Type: domain.FieldTypeNumber, Filterable: true},
	{ID: 3, Name: "city", Type: domain.FieldTypeText, Filterable: true},
}

func TestUpdate_DerivesFromForm(t *testing.T) {
	m, scoped := newManager(t)
	ctx := context.Background()

	form := url.Values{
		"source":        {"3,4"},
		"createdAtFrom": {"2024-01-01"},
		"createdAtTo":   {""},
		"segment":       {"10,11", "11"},
		"weightFrom":    {"5"},
		"weightTo":      {"null"},
		"city":          {"Lviv, Center"},
		"csrf_token":    {"ignored"},
		"q":             {"ignored"},
	}

	f, count, err := m.Update(ctx, form, fields)
	require.NoError(t, err)

	assert.Equal(t, domain.Filters{
		"source":        {"3", "4"},
		"createdAtFrom": {"2024-01-01"},
		"segment":       {"10", "11"},
		"weightFrom":    {"5"},
		"city":          {"Lviv, Center"},
	}, f)
	assert.Equal(t, 7, count)

	raw, ok, err := scoped.Get(ctx, session.KeySelectedFilters)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "null")
	assert.NotContains(t, raw, "createdAtTo")
}

func TestUpdate_RepeatedValueCountsOnce(t *testing.T) {
	m, _ := newManager(t)
	vip := domain.FieldDefinition{ID: 4, Name: "vip", Type: domain.FieldTypeBoolean, Filterable: true}

	// a single-select widget posts its value from both the native select and the hidden input
	form := url.Values{
		"vip":  {"true", "true"},
		"city": {"Lviv", "Lviv "},
	}

	f, count, err := m.Update(context.Background(), form, append([]domain.FieldDefinition{vip}, fields...))
	require.NoError(t, err)

	assert.Equal(t, domain.Filters{"vip": {"true"}, "city": {"Lviv"}}, f)
	assert.Equal(t, 2, count)
}

func TestUpdate_EmptyFormRemovesEntry(t *testing.T) {
	m, scoped := newManager(t)
	ctx := context.Background()

	_, _, err := m.Update(ctx, url.Values{"source": {"3"}}, nil)
	require.NoError(t, err)

	_, count, err := m.Update(ctx, url.Values{"source": {""}}, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, ok, _ := scoped.Get(ctx, session.KeySelectedFilters)
	assert.False(t, ok)
}

func TestClear_RemovesPersistedEntry(t *testing.T) {
	m, scoped := newManager(t)
	ctx := context.Background()

	_, _, err := m.Update(ctx, url.Values{"source": {"3"}, "segment": {"10"}}, fields)
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx))

	_, ok, err := scoped.Get(ctx, session.KeySelectedFilters)
	require.NoError(t, err)
	assert.False(t, ok, "cleared state must be absent, not an empty object")

	f, err := m.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestRestore_NormalizesKeys(t *testing.T) {
	m, scoped := newManager(t)
	ctx := context.Background()

	require.NoError(t, scoped.Set(ctx, session.KeySelectedFilters,
		`{"Source":["3"],"source":["3","5"],"CREATEDATFROM":"2024-02-01","Segment":[10],"removedField":["x"],"showinactive":[true],"weightTo":["", "null"]}`))

	f, err := m.Restore(ctx, []string{"segment", "weightFrom", "weightTo"})
	require.NoError(t, err)

	assert.Equal(t, domain.Filters{
		"source":        {"3", "5"},
		"createdAtFrom": {"2024-02-01"},
		"segment":       {"10"},
		"showInactive":  {"true"},
	}, f)
}

func TestRestore_CorruptStateIsDiscarded(t *testing.T) {
	m, scoped := newManager(t)
	ctx := context.Background()
	require.NoError(t, scoped.Set(ctx, session.KeySelectedFilters, `{not json`))

	f, err := m.Restore(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, f)

	_, ok, _ := scoped.Get(ctx, session.KeySelectedFilters)
	assert.False(t, ok)
}

func TestChangeEntityType_KeepsPreservedKeys(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	form := url.Values{
		"source":        {"3"},
		"user":          {"8"},
		"updatedAtFrom": {"2024-01-01"},
		"segment":       {"10"},
		"weightFrom":    {"1"},
	}
	_, _, err := m.Update(ctx, form, fields)
	require.NoError(t, err)

	kept, err := m.ChangeEntityType(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Filters{"source": {"3"}, "updatedAtFrom": {"2024-01-01"}}, kept)

	restored, err := m.Restore(ctx, []string{"segment", "weightFrom", "weightTo"})
	require.NoError(t, err)
	assert.Equal(t, kept, restored)
}

func TestActiveCount(t *testing.T) {
	assert.Zero(t, ActiveCount(domain.Filters{}))
	assert.Equal(t, 3, ActiveCount(domain.Filters{"a": {"1", "2"}, "b": {"3"}}))
}
