package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/controller"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/modal"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/session"
)

// =============================================================================
// Test Doubles
// =============================================================================

// fakeAPI stands in for the backend client: it serves searches for the list
// controller and record calls for the page handler.
type fakeAPI struct {
	mu        sync.Mutex
	searches  []apiclient.SearchParams
	page      domain.Page
	record    domain.Record
	searchErr error
	getErr    error
	patchErr  error
	deleteErr error
	patched   []domain.FieldValue
	deleted   []int64

	exportParams apiclient.SearchParams
	exportFields []string
	export       *apiclient.Export
	exportErr    error
}

func (f *fakeAPI) Search(ctx context.Context, kind domain.EntityKind, p apiclient.SearchParams) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, p)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	page := f.page
	return &page, nil
}

func (f *fakeAPI) Entities(ctx context.Context) domain.Lookups {
	lk := domain.EmptyLookups()
	lk.Sources[3] = "Expo"
	lk.Sources[4] = "Ads"
	lk.Users[9] = "Ivan P"
	lk.Products[2] = "Walnuts"
	return lk
}

func (f *fakeAPI) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec := f.record
	rec.ID = id
	return &rec, nil
}

func (f *fakeAPI) PatchFieldValues(ctx context.Context, kind domain.EntityKind, id int64, values []domain.FieldValue) error {
	f.patched = values
	return f.patchErr
}

func (f *fakeAPI) Delete(ctx context.Context, kind domain.EntityKind, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Export(ctx context.Context, kind domain.EntityKind, p apiclient.SearchParams, fields []string) (*apiclient.Export, error) {
	f.exportParams = p
	f.exportFields = fields
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.export, nil
}

func (f *fakeAPI) lastSearch(t *testing.T) apiclient.SearchParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.searches) == 0 {
		t.Fatal("no search was made")
	}
	return f.searches[len(f.searches)-1]
}

// fakeLoader serves one entity type with a phone, a weight and a status field.
type fakeLoader struct{}

func (fakeLoader) ClientType(ctx context.Context, id int64) (*domain.EntityType, error) {
	return &domain.EntityType{ID: id, Name: "Wholesale", NameFieldLabel: "Company"}, nil
}

func (fakeLoader) Fields(ctx context.Context, typeID int64, set apiclient.FieldSet) ([]domain.FieldDefinition, error) {
	phone := domain.FieldDefinition{ID: 1, Name: "phone", Label: "Phone", Type: domain.FieldTypePhone, DisplayOrder: 1, VisibleInTable: true, Filterable: true}
	weight := domain.FieldDefinition{ID: 2, Name: "weight", Label: "Weight", Type: domain.FieldTypeNumber, DisplayOrder: 2, VisibleInTable: true, Filterable: true}
	status := domain.FieldDefinition{ID: 3, Name: "status", Label: "Status", Type: domain.FieldTypeList, DisplayOrder: 3, Filterable: true,
		ListValues: []domain.ListValue{{ID: 31, Value: "Active"}, {ID: 32, Value: "Lost"}}}
	switch set {
	case apiclient.VisibleFields:
		return []domain.FieldDefinition{phone, weight}, nil
	case apiclient.FilterableFields:
		return []domain.FieldDefinition{phone, weight, status}, nil
	case apiclient.CreateFields:
		return []domain.FieldDefinition{phone}, nil
	}
	return []domain.FieldDefinition{phone, weight, status}, nil
}

// recordingArchiver implements Archiver for testing.
type recordingArchiver struct {
	saved []string
}

func (a *recordingArchiver) Enabled() bool { return true }

func (a *recordingArchiver) Save(ctx context.Context, kind, filename, contentType string, body []byte) (string, error) {
	a.saved = append(a.saved, kind+"/"+filename)
	return "exports/" + kind + "/" + filename, nil
}

// =============================================================================
// Test Helpers
// =============================================================================

type pageFixture struct {
	api     *fakeAPI
	store   session.Store
	guards  *modal.GuardRegistry
	archive *recordingArchiver
	handler *PageHandler
	mux     *http.ServeMux
	sess    *auth.Session
}

func newPageFixture(t *testing.T, authorities ...string) *pageFixture {
	t.Helper()
	updated := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	weight := 12.5
	phone := "+380501112233"
	source := int64(3)

	api := &fakeAPI{
		page: domain.Page{
			Content: []domain.Record{
				{ID: 7, Company: "Acme Nuts", SourceID: &source, UpdatedAt: &updated, FieldValues: []domain.FieldValue{
					{FieldID: 1, ValueText: &phone},
					{FieldID: 2, ValueNumber: &weight},
				}},
			},
			TotalElements: 1,
			TotalPages:    1,
		},
		record: domain.Record{Company: "Acme Nuts", SourceID: &source, UpdatedAt: &updated, FieldValues: []domain.FieldValue{
			{FieldID: 1, ValueText: &phone},
			{FieldID: 2, ValueNumber: &weight},
		}},
	}

	store := session.NewMemoryStore(0)
	logger := newTestLogger()
	guards := modal.NewGuardRegistry()
	archive := &recordingArchiver{}
	lists := controller.New(api, schema.NewCache(fakeLoader{}), store, logger)

	h := NewPageHandler(PageConfig{
		Backend:  api,
		Lists:    lists,
		Guards:   guards,
		Archiver: archive,
		Messages: apiclient.NewMessages("en"),
		Logger:   logger,
		PageSize: 20,
	})

	token := "page-token"
	sess := &auth.Session{
		Token:     token,
		Namespace: session.Namespace(token),
		User:      &domain.SessionUser{UserID: "7", Role: "MANAGER", FullName: "Olena K", Authorities: authorities},
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.SetSession(r.Context(), sess)))
		})
	})

	return &pageFixture{api: api, store: store, guards: guards, archive: archive, handler: h, mux: mux, sess: sess}
}

func (f *pageFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *pageFixture) get(target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return f.do(req)
}

func (f *pageFixture) stored(t *testing.T, key string) string {
	t.Helper()
	v, _, err := f.store.Get(context.Background(), f.sess.Namespace, key)
	if err != nil {
		t.Fatalf("store.Get(%s): %v", key, err)
	}
	return v
}

func htmxForm(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

// =============================================================================
// Index Tests
// =============================================================================

func TestIndex_RendersListPage(t *testing.T) {
	f := newPageFixture(t, "client:export")

	rec := f.get("/clients?type=5", false)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`id="list-region"`,
		`id="filter-form"`,
		`id="list-search"`,
		"Acme Nuts",
		"Wholesale",
		"+380501112233",
		`action="/clients/export"`,
		`data-select="source"`,
		`data-select="status"`,
		`name="weightFrom"`,
		`name="showInactive"`,
		"Olena K",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("list page missing %s", want)
		}
	}

	if got := f.stored(t, session.KeyClientTypeID); got != "5" {
		t.Errorf("stored type = %q, want 5", got)
	}
	p := f.api.lastSearch(t)
	if p.ClientTypeID != 5 || p.Size != 20 || p.Sort != domain.ColumnUpdatedAt {
		t.Errorf("search params = %+v", p)
	}
}

func TestIndex_HidesExportWithoutAuthority(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/purchases", false)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/purchases/export") {
		t.Error("export button rendered without authority")
	}
	if strings.Contains(rec.Body.String(), `name="showInactive"`) {
		t.Error("purchases have no inactive filter")
	}
}

func TestIndex_UnknownKindIsNotFound(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/nonsense", false)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoot_RedirectsHome(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/", false)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != HomePath() {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

// =============================================================================
// Table Tests
// =============================================================================

func TestTable_SortAndPage(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/purchases/table?page=2&size=20&sort=amount&direction=DESC", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	p := f.api.lastSearch(t)
	if p.Page != 2 || p.Sort != domain.ColumnAmount || p.Direction != domain.DESC {
		t.Errorf("search params = %+v", p)
	}
	push := rec.Header().Get("HX-Push-Url")
	if !strings.HasPrefix(push, "/purchases?") || !strings.Contains(push, "page=2") || !strings.Contains(push, "sort=amount") {
		t.Errorf("HX-Push-Url = %q", push)
	}
	if strings.Contains(rec.Body.String(), "<html") {
		t.Error("table partial must not include the layout")
	}
}

func TestTable_UnlistedSortFallsBack(t *testing.T) {
	f := newPageFixture(t)

	f.get("/stock/table?sort=password", true)

	if p := f.api.lastSearch(t); p.Sort != domain.ColumnUpdatedAt {
		t.Errorf("sort = %q, want default", p.Sort)
	}
}

func TestTable_SearchTermIsRemembered(t *testing.T) {
	f := newPageFixture(t)

	f.get("/containers/table?q=+barrel+", true)
	if got := f.stored(t, session.KeySearchTerm); got != "barrel" {
		t.Errorf("stored term = %q", got)
	}

	f.get("/containers/table?page=1", true)
	if p := f.api.lastSearch(t); p.Q != "barrel" {
		t.Errorf("q = %q, want remembered term", p.Q)
	}

	f.get("/containers/table?q=", true)
	if got := f.stored(t, session.KeySearchTerm); got != "" {
		t.Errorf("blank search should clear the term, got %q", got)
	}
}

func TestTable_NonHTMXRedirectsToPage(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/stock/table?page=1", false)

	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), "/stock?") {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestTable_BackendRejectsToken(t *testing.T) {
	f := newPageFixture(t)
	f.api.searchErr = &apiclient.APIError{Status: http.StatusUnauthorized, Code: apiclient.CodeUnauthorized}

	req := httptest.NewRequest("GET", "/stock/table?page=1", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://app.example.com/stock?page=1")
	rec := f.do(req)

	if got := rec.Header().Get("HX-Redirect"); got != "/login?return_to=%2Fstock%3Fpage%3D1" {
		t.Errorf("HX-Redirect = %q", got)
	}
	c := findCookie(rec, session.CookieName)
	if c == nil || c.MaxAge != -1 {
		t.Errorf("auth cookie should be cleared, got %+v", c)
	}
}

func TestTable_BackendErrorShowsToast(t *testing.T) {
	f := newPageFixture(t)
	f.api.searchErr = &apiclient.APIError{Status: http.StatusInternalServerError, Code: "STOCK_ERROR_DEFAULT", Message: "Stock is being recounted"}

	rec := f.get("/stock/table", true)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for htmx toasts", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("table must stay in place on error")
	}
	if !strings.Contains(rec.Body.String(), "Stock is being recounted") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestFilters_SavesAndReloadsFromFirstPage(t *testing.T) {
	f := newPageFixture(t)
	f.get("/clients?type=5", false)

	rec := f.do(htmxForm("POST", "/clients/filters", url.Values{
		"weightFrom": {"10"},
		"source":     {"3,4"},
		"bogus":      {"x"},
		"page":       {"4"},
		"q":          {"acme"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	p := f.api.lastSearch(t)
	if p.Page != 0 {
		t.Errorf("page = %d, want 0", p.Page)
	}
	if p.Q != "acme" {
		t.Errorf("q = %q", p.Q)
	}
	if got := p.Filters["weightFrom"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("weightFrom = %v", got)
	}
	if got := p.Filters["source"]; len(got) != 2 {
		t.Errorf("source = %v", got)
	}
	if _, ok := p.Filters["bogus"]; ok {
		t.Error("unknown filter key was kept")
	}

	body := rec.Body.String()
	if !strings.Contains(body, `id="filter-badge" hx-swap-oob="true"`) || !strings.Contains(body, ">3</span>") {
		t.Errorf("badge not updated: %s", body)
	}
	if f.stored(t, session.KeySelectedFilters) == "" {
		t.Error("filters were not persisted")
	}
}

func TestClearFilters_ResetsEverything(t *testing.T) {
	f := newPageFixture(t)
	f.get("/clients?type=5", false)
	f.do(htmxForm("POST", "/clients/filters", url.Values{"weightFrom": {"10"}}))

	rec := f.do(htmxForm("POST", "/clients/filters/clear", url.Values{}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok, _ := f.store.Get(context.Background(), f.sess.Namespace, session.KeySelectedFilters); ok {
		t.Error("filter entry should be deleted, not emptied")
	}
	if p := f.api.lastSearch(t); len(p.Filters) != 0 {
		t.Errorf("filters = %v", p.Filters)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="filter-form" hx-swap-oob="true"`, `id="toast-container"`, "Filters cleared"} {
		if !strings.Contains(body, want) {
			t.Errorf("clear response missing %s", want)
		}
	}
}

// =============================================================================
// Select Tests
// =============================================================================

func TestSelect_SearchReturnsMatchingOptions(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/clients/select/source?selected=&q=ex", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Expo") || strings.Contains(body, "Ads") {
		t.Errorf("options = %s", body)
	}
	if strings.Contains(body, "<select") {
		t.Error("search should return only the option list")
	}
}

func TestSelect_PickTogglesInMultiMode(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/clients/select/source?selected=4&pick=3", true)

	body := rec.Body.String()
	if !strings.Contains(body, `name="source" value="4,3"`) {
		t.Errorf("hidden value not updated: %s", body)
	}
	if !strings.Contains(body, `data-tag="3"`) || !strings.Contains(body, `data-tag="4"`) {
		t.Errorf("tags missing: %s", body)
	}
}

func TestSelect_DynamicListField(t *testing.T) {
	f := newPageFixture(t)
	f.get("/clients?type=5", false)

	rec := f.get("/clients/select/status?selected=31", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Lost") {
		t.Error("list values missing")
	}
}

func TestSelect_UnknownFilter(t *testing.T) {
	f := newPageFixture(t)

	rec := f.get("/purchases/select/source", false)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
