package table

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var labels = apiclient.NewMessages("en")

func kind(t *testing.T, slug string) domain.EntityKind {
	t.Helper()
	k, ok := domain.KindBySlug(slug)
	require.True(t, ok)
	return k
}

func keys(cols []Column) []string {
	var out []string
	for _, c := range cols {
		out = append(out, c.Key)
	}
	return out
}

func TestColumns_OrderAndSyntheticColumns(t *testing.T) {
	fields := []domain.FieldDefinition{
		{ID: 1, Name: "phone", Label: "Phone", DisplayOrder: 2},
		{ID: 2, Name: "segment", Label: "Segment", DisplayOrder: 1},
		{ID: 3, Name: "city", Label: "City", DisplayOrder: 2},
		{ID: 4, Name: "vip", Label: "VIP", DisplayOrder: 1},
	}
	et := &domain.EntityType{ID: 1, NameFieldLabel: "Company name"}

	cols := Columns(kind(t, "clients"), et, fields, labels)

	assert.Equal(t, []string{"company", "source", "segment", "vip", "phone", "city", "createdAt", "updatedAt"}, keys(cols))
	assert.Equal(t, "Company name", cols[0].Label)
	assert.True(t, cols[0].Primary)
	assert.True(t, cols[0].Synthetic)
	assert.Equal(t, "Source", cols[1].Label)
}

func TestColumns_DeclaredNameAndSource(t *testing.T) {
	fields := []domain.FieldDefinition{
		{ID: 1, Name: "phone", Label: "Phone", DisplayOrder: 1},
		{ID: 2, Name: "company", Label: "Firm", DisplayOrder: 3},
		{ID: 3, Name: "Source", Label: "Lead source", DisplayOrder: 2},
	}

	cols := Columns(kind(t, "clients"), &domain.EntityType{}, fields, labels)

	assert.Equal(t, []string{"phone", "source", "company", "createdAt", "updatedAt"}, keys(cols))
	assert.Equal(t, "Firm", cols[2].Label)
	assert.True(t, cols[2].Primary)
	assert.False(t, cols[2].Synthetic)
	assert.True(t, cols[1].Static())
}

func TestColumns_UntypedKindMarksFirstColumnPrimary(t *testing.T) {
	cols := Columns(kind(t, "purchases"), nil, nil, labels)
	assert.Equal(t, []string{"product", "quantity", "amount", "user", "updatedAt"}, keys(cols))
	assert.True(t, cols[0].Primary)
	assert.False(t, cols[1].Primary)
}

func TestBuild_OneHeaderPerColumn(t *testing.T) {
	for n := 0; n < 5; n++ {
		var fields []domain.FieldDefinition
		for i := 0; i < n; i++ {
			fields = append(fields, domain.FieldDefinition{ID: int64(i + 1), Name: "f" + strconv.Itoa(i), DisplayOrder: n - i})
		}
		k := kind(t, "clients")
		cols := Columns(k, nil, fields, labels)
		tbl := Build(k, cols, nil, domain.EmptyLookups(), DefaultSort(k), labels)
		assert.Len(t, tbl.Headers, n+4)
		assert.Empty(t, tbl.Rows)
	}
}

func TestBuild_Cells(t *testing.T) {
	k := kind(t, "clients")
	fields := []domain.FieldDefinition{
		{ID: 1, Name: "phone", Label: "Phone", Type: domain.FieldTypePhone, DisplayOrder: 1, AllowMultiple: true},
		{ID: 2, Name: "note", Label: "Note", Type: domain.FieldTypeText, DisplayOrder: 2},
		{ID: 3, Name: "vip", Label: "VIP", Type: domain.FieldTypeBoolean, DisplayOrder: 3},
		{ID: 4, Name: "segment", Label: "Segment", Type: domain.FieldTypeList, DisplayOrder: 4,
			ListValues: []domain.ListValue{{ID: 10, Value: "Retail"}}},
	}
	cols := Columns(k, nil, fields, labels)

	p1, p2, blank := "+380501", "+380502", " "
	yes := true
	src := int64(3)
	updated := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	records := []domain.Record{{
		ID:        7,
		Company:   "Acme",
		SourceID:  &src,
		UpdatedAt: &updated,
		FieldValues: []domain.FieldValue{
			{FieldID: 1, ValueText: &p1},
			{FieldID: 1, ValueText: &p2},
			{FieldID: 2, ValueText: &blank},
			{FieldID: 3, ValueBoolean: &yes},
			{FieldID: 4, ValueList: &domain.ListValue{ID: 10}},
		},
	}}
	lk := domain.EmptyLookups()
	lk.Sources[3] = "Expo"

	tbl := Build(k, cols, records, lk, DefaultSort(k), labels)
	require.Len(t, tbl.Rows, 1)

	byKey := map[string]Cell{}
	for i, c := range tbl.Rows[0].Cells {
		byKey[tbl.Headers[i].Key] = c
	}

	assert.Equal(t, "Acme", byKey["company"].Text())
	assert.True(t, byKey["company"].Primary)
	assert.Equal(t, "Expo", byKey["source"].Text())
	assert.Equal(t, []string{"+380501", "+380502"}, byKey["phone"].Lines)
	assert.True(t, byKey["note"].Placeholder)
	assert.Equal(t, domain.EmptyCell, byKey["note"].Text())
	assert.Equal(t, "Yes", byKey["vip"].Text())
	assert.Equal(t, "Retail", byKey["segment"].Text())
	assert.Equal(t, "09.03.2024 14:05", byKey["updatedAt"].Text())
	assert.True(t, byKey["createdAt"].Placeholder)
}

func TestBuild_LookupFallsBackToID(t *testing.T) {
	k := kind(t, "purchases")
	user := int64(42)
	qty := 12.5
	tbl := Build(k, Columns(k, nil, nil, labels), []domain.Record{{ID: 1, UserID: &user, Quantity: &qty}}, domain.EmptyLookups(), DefaultSort(k), labels)

	var user42, quantity string
	for i, h := range tbl.Headers {
		switch h.Key {
		case "user":
			user42 = tbl.Rows[0].Cells[i].Text()
		case "quantity":
			quantity = tbl.Rows[0].Cells[i].Text()
		}
	}
	assert.Equal(t, "42", user42)
	assert.Equal(t, "12.5", quantity)
}

func TestBuild_SortableHeadersFollowAllowList(t *testing.T) {
	k := kind(t, "containers")
	cols := Columns(k, nil, nil, labels)
	tbl := Build(k, cols, nil, domain.EmptyLookups(), SortState{Field: "quantity", Direction: domain.ASC}, labels)

	for _, h := range tbl.Headers {
		switch h.Key {
		case "quantity":
			assert.True(t, h.Sortable)
			assert.True(t, h.Active)
			assert.Equal(t, domain.ASC, h.Direction)
		case "updatedAt":
			assert.True(t, h.Sortable)
			assert.False(t, h.Active)
		default:
			assert.False(t, h.Sortable, h.Key)
		}
	}
}

func TestSortState_Toggle(t *testing.T) {
	k := kind(t, "containers")
	s := SortState{Field: "updatedAt", Direction: domain.DESC}

	next, reset := s.Toggle(k, "updatedAt")
	assert.Equal(t, SortState{Field: "updatedAt", Direction: domain.ASC}, next)
	assert.False(t, reset)

	next, reset = next.Toggle(k, "updatedAt")
	assert.Equal(t, domain.DESC, next.Direction)
	assert.False(t, reset)

	next, reset = s.Toggle(k, "quantity")
	assert.Equal(t, SortState{Field: "quantity", Direction: domain.ASC}, next)
	assert.True(t, reset)

	next, reset = s.Toggle(k, "user")
	assert.Equal(t, s, next)
	assert.False(t, reset)
}

func TestComponent(t *testing.T) {
	k := kind(t, "containers")
	user := int64(1)
	tbl := Build(k, Columns(k, nil, nil, labels), []domain.Record{{ID: 9, UserID: &user}}, domain.EmptyLookups(), DefaultSort(k), labels)

	links := Links{
		Sort:    func(f string) string { return "/containers/table?sort=" + f },
		Details: func(id int64) string { return "/containers/records/" + strconv.FormatInt(id, 10) },
		Target:  "#list",
	}
	var buf bytes.Buffer
	require.NoError(t, Component(tbl, links, "No records found").Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `data-sort="quantity"`)
	assert.Contains(t, html, `data-sort="updatedAt"`)
	assert.NotContains(t, html, `data-sort="user"`)
	assert.Contains(t, html, `data-direction="DESC"`)
	assert.Contains(t, html, `hx-get="/containers/records/9"`)
	assert.Equal(t, 2, strings.Count(html, domain.EmptyCell))
}

func TestComponent_EmptyTable(t *testing.T) {
	k := kind(t, "stock")
	tbl := Build(k, Columns(k, nil, nil, labels), nil, domain.EmptyLookups(), DefaultSort(k), labels)
	var buf bytes.Buffer
	require.NoError(t, Component(tbl, Links{Sort: func(string) string { return "" }, Details: func(int64) string { return "" }}, "No records found").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `colspan="3"`)
	assert.Contains(t, buf.String(), "No records found")
}
