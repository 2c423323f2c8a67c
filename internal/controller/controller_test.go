package controller

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var en = apiclient.NewMessages("en")

func kindOf(t *testing.T, slug string) domain.EntityKind {
	t.Helper()
	k, ok := domain.KindBySlug(slug)
	require.True(t, ok)
	return k
}

type fakeSearcher struct {
	mu     sync.Mutex
	params []apiclient.SearchParams
	// gate, when set, is received from before answering a search for page gatePage.
	gate     chan struct{}
	gatePage int
	entered  chan struct{}
	page     domain.Page
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, kind domain.EntityKind, p apiclient.SearchParams) (*domain.Page, error) {
	f.mu.Lock()
	f.params = append(f.params, p)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil && p.Page == f.gatePage {
		f.entered <- struct{}{}
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	page := f.page
	return &page, nil
}

func (f *fakeSearcher) Entities(ctx context.Context) domain.Lookups {
	lk := domain.EmptyLookups()
	lk.Sources[3] = "Expo"
	return lk
}

func (f *fakeSearcher) last() apiclient.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params[len(f.params)-1]
}

type fakeSchemas struct{}

func (fakeSchemas) Load(ctx context.Context, ns string, typeID int64) (*schema.Schema, error) {
	fields := []domain.FieldDefinition{
		{ID: 1, Name: "phone", Label: "Phone", Type: domain.FieldTypePhone, DisplayOrder: 2, VisibleInTable: true},
		{ID: 2, Name: "weight", Label: "Weight", Type: domain.FieldTypeNumber, DisplayOrder: 1, VisibleInTable: true, Filterable: true},
	}
	return &schema.Schema{
		Type:       domain.EntityType{ID: typeID, NameFieldLabel: "Company"},
		Fields:     fields,
		Visible:    fields,
		Filterable: fields[1:],
	}, nil
}

func newController(s *fakeSearcher) (*ListController, *session.MemoryStore) {
	store := session.NewMemoryStore(0)
	return New(s, fakeSchemas{}, store, nil), store
}

func TestParseState(t *testing.T) {
	clients := kindOf(t, "clients")

	s := ParseState(clients, url.Values{}, 0)
	assert.Equal(t, State{Size: 50, Sort: "updatedAt", Direction: domain.DESC}, s)

	s = ParseState(clients, url.Values{"page": {"3"}, "size": {"20"}, "sort": {"company"}, "direction": {"desc"}, "q": {" acme "}}, 50)
	assert.Equal(t, State{Page: 3, Size: 20, Sort: "company", Direction: domain.DESC, Query: "acme"}, s)

	s = ParseState(clients, url.Values{"page": {"-2"}, "size": {"100000"}, "sort": {"phone"}}, 25)
	assert.Equal(t, State{Size: 25, Sort: "updatedAt", Direction: domain.DESC}, s)

	s = ParseState(clients, url.Values{"sort": {"company"}}, 50)
	assert.Equal(t, domain.ASC, s.Direction)
}

func TestState_Transitions(t *testing.T) {
	containers := kindOf(t, "containers")
	s := State{Page: 4, Size: 50, Sort: "updatedAt", Direction: domain.DESC}

	flipped := s.WithSort(containers, "updatedAt")
	assert.Equal(t, domain.ASC, flipped.Direction)
	assert.Equal(t, 4, flipped.Page)

	switched := s.WithSort(containers, "quantity")
	assert.Equal(t, State{Page: 0, Size: 50, Sort: "quantity", Direction: domain.ASC}, switched)

	assert.Equal(t, s, s.WithSort(containers, "user"))
	assert.Equal(t, 0, s.WithPage(-1).Page)
	assert.Equal(t, State{Page: 0, Size: 50, Sort: "updatedAt", Direction: domain.DESC, Query: "box"}, s.WithQuery(" box "))

	assert.Equal(t, "direction=DESC&page=4&size=50&sort=updatedAt", s.Encode())
}

func TestListController_LoadBuildsRequestAndView(t *testing.T) {
	src := int64(3)
	s := &fakeSearcher{page: domain.Page{
		Content:       []domain.Record{{ID: 1, Company: "Acme", SourceID: &src}},
		TotalElements: 51,
		TotalPages:    2,
	}}
	c, store := newController(s)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "ns", session.KeySelectedFilters, `{"source":["3"],"WeightFrom":["5"],"gone":["x"]}`))

	st := DefaultState(kindOf(t, "clients"), 50)
	v, err := c.Load(ctx, "ns", kindOf(t, "clients"), st, 7, en)
	require.NoError(t, err)

	p := s.last()
	assert.Equal(t, int64(7), p.ClientTypeID)
	assert.Equal(t, domain.Filters{"source": {"3"}, "weightFrom": {"5"}}, p.Filters)
	q, err := p.Query()
	require.NoError(t, err)
	assert.Contains(t, q, "page=0&size=50&sort=updatedAt&direction=DESC&filters=")

	assert.Equal(t, int64(7), v.TypeID)
	assert.Equal(t, 2, v.FilterCount)
	assert.Equal(t, "51 records, page 1 of 2", v.Pager.Summary)
	assert.True(t, v.Pager.PrevDisabled)
	assert.False(t, v.Pager.NextDisabled)

	var keys []string
	for _, h := range v.Table.Headers {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, []string{"company", "source", "weight", "phone", "createdAt", "updatedAt"}, keys)
	require.Len(t, v.Table.Rows, 1)
	assert.Equal(t, "Expo", v.Table.Rows[0].Cells[1].Text())
}

func TestListController_LoadWithoutType(t *testing.T) {
	s := &fakeSearcher{}
	c, _ := newController(s)

	v, err := c.Load(context.Background(), "ns", kindOf(t, "stock"), DefaultState(kindOf(t, "stock"), 50), 0, en)
	require.NoError(t, err)
	assert.Nil(t, v.Schema)
	assert.Zero(t, s.last().ClientTypeID)
	assert.Len(t, v.Table.Headers, 3)
	assert.Equal(t, "No records found", v.Pager.Summary)
}

func TestListController_LoadPropagatesBackendError(t *testing.T) {
	s := &fakeSearcher{err: &apiclient.APIError{Status: 403, Code: "ACCESS_DENIED", Message: "no rights"}}
	c, _ := newController(s)

	_, err := c.Load(context.Background(), "ns", kindOf(t, "stock"), DefaultState(kindOf(t, "stock"), 50), 0, en)
	ae, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "no rights", ae.Message)
}

func TestListController_DiscardsSupersededResponse(t *testing.T) {
	s := &fakeSearcher{gate: make(chan struct{}), gatePage: 1, entered: make(chan struct{})}
	c, _ := newController(s)
	kind := kindOf(t, "stock")
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, "ns", kind, DefaultState(kind, 50).WithPage(1), 0, en)
		slow <- err
	}()
	<-s.entered

	v, err := c.Load(ctx, "ns", kind, DefaultState(kind, 50).WithPage(2), 0, en)
	require.NoError(t, err)
	assert.Equal(t, 2, v.State.Page)

	close(s.gate)
	err = <-slow
	require.Error(t, err)
	assert.Equal(t, domain.ESTALE, domain.ErrorCode(err))

	_, err = c.Load(ctx, "other", kind, DefaultState(kind, 50), 0, en)
	assert.NoError(t, err, "other sessions are not affected")
}

func TestListController_SearchTerm(t *testing.T) {
	c, store := newController(&fakeSearcher{})
	ctx := context.Background()

	term, err := c.SearchTerm(ctx, "ns", nil)
	require.NoError(t, err)
	assert.Equal(t, "", term)

	submitted := " acme "
	term, err = c.SearchTerm(ctx, "ns", &submitted)
	require.NoError(t, err)
	assert.Equal(t, "acme", term)

	term, err = c.SearchTerm(ctx, "ns", nil)
	require.NoError(t, err)
	assert.Equal(t, "acme", term)

	blank := ""
	_, err = c.SearchTerm(ctx, "ns", &blank)
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, "ns", session.KeySearchTerm)
	assert.False(t, ok)
}

func TestListController_EntityTypeChangeKeepsPreservedFilters(t *testing.T) {
	c, store := newController(&fakeSearcher{})
	ctx := context.Background()

	id, err := c.EntityType(ctx, "ns", "4")
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	require.NoError(t, store.Set(ctx, "ns", session.KeySelectedFilters, `{"source":["3"],"weight":["5"],"createdAtFrom":["2024-01-01"]}`))

	id, err = c.EntityType(ctx, "ns", "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	id, err = c.EntityType(ctx, "ns", "9")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	raw, _, err := store.Get(ctx, "ns", session.KeySelectedFilters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":["3"],"createdAtFrom":["2024-01-01"]}`, raw)

	_, err = c.EntityType(ctx, "ns", "abc")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
