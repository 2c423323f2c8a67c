package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/controller"
	"github.com/DukeRupert/tradedesk/internal/csrf"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/modal"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/selectbox"
	"github.com/DukeRupert/tradedesk/internal/session"
	"github.com/DukeRupert/tradedesk/internal/table"
	"github.com/DukeRupert/tradedesk/internal/templ/components/pagination"
	"github.com/DukeRupert/tradedesk/internal/templ/pages/records"
	"github.com/DukeRupert/tradedesk/internal/templ/shared"
	"github.com/a-h/templ"
)

// DefaultSearchDebounce is the delay between the last keystroke in the list
// search box and the reload.
const DefaultSearchDebounce = 400 * time.Millisecond

// typeParam carries the selected entity type in list URLs.
const typeParam = "type"

// =============================================================================
// Handler Configuration
// =============================================================================

// Backend is the part of the backend API the page handlers call directly.
// *apiclient.Client implements it.
type Backend interface {
	Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Record, error)
	PatchFieldValues(ctx context.Context, kind domain.EntityKind, id int64, values []domain.FieldValue) error
	Delete(ctx context.Context, kind domain.EntityKind, id int64) error
	Export(ctx context.Context, kind domain.EntityKind, p apiclient.SearchParams, fields []string) (*apiclient.Export, error)
	Entities(ctx context.Context) domain.Lookups
}

// Archiver keeps a copy of generated exports. *storage.Archiver implements it.
type Archiver interface {
	Enabled() bool
	Save(ctx context.Context, kind, filename, contentType string, body []byte) (string, error)
}

// PageHandler serves the list pages of every entity kind, their partials
// and the record details dialog.
//
// Routes handled:
// - GET    /{kind}                                   -> Index
// - GET    /{kind}/table                             -> Table
// - POST   /{kind}/filters                           -> Filters
// - POST   /{kind}/filters/clear                     -> ClearFilters
// - GET    /{kind}/select/{name}                     -> Select
// - POST   /{kind}/export                            -> Export
// - GET    /{kind}/records/{id}                      -> Details
// - DELETE /{kind}/records/{id}                      -> Delete
// - GET    /{kind}/records/{id}/fields/{field}/edit   -> EditField
// - PATCH  /{kind}/records/{id}/fields/{field}        -> SaveField
// - POST   /{kind}/records/{id}/fields/{field}/cancel -> CancelField
type PageHandler struct {
	backend        Backend
	lists          *controller.ListController
	guards         *modal.GuardRegistry
	archiver       Archiver
	messages       *apiclient.Messages
	logger         *slog.Logger
	timings        modal.Timings
	pageSize       int
	searchDebounce time.Duration
	selectDebounce time.Duration
	isSecure       bool
}

// PageConfig holds the dependencies of a PageHandler.
type PageConfig struct {
	Backend        Backend
	Lists          *controller.ListController
	Guards         *modal.GuardRegistry
	Archiver       Archiver // optional
	Messages       *apiclient.Messages
	Logger         *slog.Logger
	Timings        modal.Timings
	PageSize       int
	SearchDebounce time.Duration
	SelectDebounce time.Duration
	IsSecure       bool
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(cfg PageConfig) *PageHandler {
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.SelectDebounce <= 0 {
		cfg.SelectDebounce = selectbox.DefaultDebounce
	}
	if cfg.Timings == (modal.Timings{}) {
		cfg.Timings = modal.DefaultTimings()
	}
	if cfg.Guards == nil {
		cfg.Guards = modal.NewGuardRegistry()
	}
	return &PageHandler{
		backend:        cfg.Backend,
		lists:          cfg.Lists,
		guards:         cfg.Guards,
		archiver:       cfg.Archiver,
		messages:       cfg.Messages,
		logger:         cfg.Logger,
		timings:        cfg.Timings,
		pageSize:       cfg.PageSize,
		searchDebounce: cfg.SearchDebounce,
		selectDebounce: cfg.SelectDebounce,
		isSecure:       cfg.IsSecure,
	}
}

// =============================================================================
// GET /{kind} - List Page
// =============================================================================

// Index renders the full list page.
//
// Query Parameters:
// - type: entity type id (kinds with entity types); persisted for the session
// - page, size, sort, direction: list position
// - q: search term; persisted for the session, a blank value clears it
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}

	v, err := h.load(r.Context(), s, kind, r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := records.ListPageData{
		Layout:    h.layout(r, s, kind.Slug, h.messages.T("nav."+kind.Slug)),
		Heading:   h.messages.T("nav." + kind.Slug),
		Search:    h.searchData(kind, v),
		Filters:   h.filterPanel(kind, v.Schema, v.Filters, v.FilterCount, v.Lookups),
		Region:    h.region(kind, v),
		CSRFToken: csrf.Token(r.Context()),
	}
	if v.Schema != nil {
		data.TypeName = v.Schema.Type.Name
	}
	if s.Can(kind.Authority + ":export") {
		data.Export = &records.ExportData{Action: "/" + kind.Slug + "/export", Label: h.messages.T("ui.export")}
	}

	h.render(w, r, http.StatusOK, records.IndexPage(data))
}

// =============================================================================
// GET /{kind}/table - Table Region
// =============================================================================

// Table renders the table region for a sort, page or search request and
// pushes the matching page URL into the browser history. A response that was
// overtaken by a newer request for the same list is dropped with 204.
func (h *PageHandler) Table(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}

	v, err := h.load(r.Context(), s, kind, r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, pageURL(kind, v.State, v.TypeID), http.StatusSeeOther)
		return
	}

	w.Header().Set("HX-Push-Url", pageURL(kind, v.State, v.TypeID))
	h.render(w, r, http.StatusOK, records.Region(h.region(kind, v)))
}

// load resolves the entity type, the search term and the list position of a
// request and loads the list.
func (h *PageHandler) load(ctx context.Context, s *auth.Session, kind domain.EntityKind, q url.Values) (*controller.View, error) {
	var typeID int64
	if kind.UsesTypes {
		var err error
		if typeID, err = h.lists.EntityType(ctx, s.Namespace, q.Get(typeParam)); err != nil {
			return nil, err
		}
	}

	var submitted *string
	if q.Has("q") {
		term := q.Get("q")
		submitted = &term
	}
	term, err := h.lists.SearchTerm(ctx, s.Namespace, submitted)
	if err != nil {
		return nil, err
	}

	st := controller.ParseState(kind, q, h.pageSize)
	st.Query = term
	return h.lists.Load(ctx, s.Namespace, kind, st, typeID, h.messages)
}

// =============================================================================
// POST /{kind}/filters - Apply Filters
// =============================================================================

// Filters replaces the session's filters with the submitted filter form and
// reloads the table from the first page.
func (h *PageHandler) Filters(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Invalid("PageHandler.Filters", "invalid form"))
		return
	}

	ctx := r.Context()
	sc, err := h.currentSchema(ctx, s, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var fields []domain.FieldDefinition
	if sc != nil {
		fields = sc.Filterable
	}
	if _, _, err := h.lists.Filters(s.Namespace).Update(ctx, r.PostForm, fields); err != nil {
		h.fail(w, r, err)
		return
	}

	form := r.PostForm
	form.Del("page")
	v, err := h.load(ctx, s, kind, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK,
		records.Region(h.region(kind, v)),
		records.FilterBadge(v.FilterCount, true),
	)
}

// =============================================================================
// POST /{kind}/filters/clear - Clear Filters
// =============================================================================

// ClearFilters drops every filter, reloads the table and resets the filter
// form out of band.
func (h *PageHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Invalid("PageHandler.ClearFilters", "invalid form"))
		return
	}

	ctx := r.Context()
	if err := h.lists.Filters(s.Namespace).Clear(ctx); err != nil {
		h.fail(w, r, err)
		return
	}

	form := r.PostForm
	form.Del("page")
	v, err := h.load(ctx, s, kind, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK,
		records.Region(h.region(kind, v)),
		records.FilterBadge(0, true),
		records.FilterForm(h.filterPanel(kind, v.Schema, domain.Filters{}, 0, v.Lookups), true),
		shared.Toast(shared.Flash{Type: shared.FlashInfo, Message: h.messages.T(apiclient.MsgFiltersReset)}, true),
	)
}

// =============================================================================
// GET /{kind}/select/{name} - Searchable Select
// =============================================================================

// Select serves the searchable select of one filter. A plain search request
// gets only the matching options; picks, removals and Enter commits get the
// whole widget back.
//
// Query Parameters:
// - selected: comma-joined ids currently selected
// - q: search text
// - pick, remove, commit: the interaction, see selectbox.Apply
func (h *PageHandler) Select(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	name := r.PathValue("name")
	sc, err := h.currentSchema(ctx, s, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var lookups domain.Lookups
	if isStaticSelect(kind, name) {
		lookups = h.backend.Entities(ctx)
	}
	sb, view, ok := h.widget(kind, name, sc, lookups)
	if !ok {
		h.fail(w, r, domain.NotFound("PageHandler.Select", "filter", name))
		return
	}

	q := r.URL.Query()
	sb.Apply(q)

	if !q.Has(selectbox.ParamPick) && !q.Has(selectbox.ParamRemove) && !q.Has(selectbox.ParamCommit) && q.Has(selectbox.ParamQuery) {
		term := q.Get(selectbox.ParamQuery)
		if term == sb.Display() {
			term = ""
		}
		h.render(w, r, http.StatusOK, selectbox.OptionList(sb, view, term))
		return
	}
	h.render(w, r, http.StatusOK, selectbox.Component(sb, view))
}

// =============================================================================
// Building Blocks
// =============================================================================

func (h *PageHandler) searchData(kind domain.EntityKind, v *controller.View) records.SearchData {
	hidden := map[string]string{
		"size":      strconv.Itoa(v.State.Size),
		"sort":      v.State.Sort,
		"direction": string(v.State.Direction),
	}
	if v.TypeID > 0 {
		hidden[typeParam] = strconv.FormatInt(v.TypeID, 10)
	}
	return records.SearchData{
		Action:      "/" + kind.Slug + "/table",
		Query:       v.State.Query,
		Hidden:      hidden,
		Debounce:    h.searchDebounce,
		Placeholder: h.messages.T("ui.search"),
	}
}

func (h *PageHandler) region(kind domain.EntityKind, v *controller.View) records.RegionData {
	links := table.Links{
		Sort: func(field string) string {
			return tableURL(kind, v.State.WithSort(kind, field), v.TypeID)
		},
		Details: func(id int64) string {
			return recordURL(kind, id)
		},
		Target: "#" + records.RegionID,
	}
	pager := pagination.Config{
		PageURL: func(page int) string {
			return tableURL(kind, v.State.WithPage(page), v.TypeID)
		},
		TargetID: records.RegionID,
	}
	return records.RegionData{
		Table:     table.Component(v.Table, links, h.messages.T(apiclient.MsgNoRecords)),
		Pager:     pagination.Component(v.Pager, pager),
		ReloadURL: tableURL(kind, v.State, v.TypeID),
	}
}

// filterPanel lays out the filter form of a kind: date ranges of its
// timestamp columns, selects for sources, users, products, list and yes/no
// fields, inputs for text fields, and From/To pairs for number and date fields.
func (h *PageHandler) filterPanel(kind domain.EntityKind, sc *schema.Schema, f domain.Filters, count int, lookups domain.Lookups) records.FilterPanelData {
	d := records.FilterPanelData{
		Action:      "/" + kind.Slug + "/filters",
		ClearAction: "/" + kind.Slug + "/filters/clear",
		Count:       count,
		Title:       h.messages.T("ui.filters"),
		ApplyLabel:  h.messages.T("ui.apply"),
		ClearLabel:  h.messages.T("ui.clear"),
	}

	for _, key := range domain.DateFilterKeys {
		if !hasDateColumn(kind, key) {
			continue
		}
		d.Dates = append(d.Dates, records.InputFilter{
			Key:   key,
			Label: h.messages.T("filter." + key),
			Type:  "date",
			Value: first(f[key]),
		})
	}

	for _, name := range []string{domain.FilterSource, domain.FilterUser, domain.FilterProduct} {
		if !isStaticSelect(kind, name) {
			continue
		}
		d.Selects = append(d.Selects, h.selectComponent(kind, name, sc, lookups, f))
	}

	if sc != nil {
		for _, def := range sc.Filterable {
			switch def.Kind().Type() {
			case domain.FieldTypeList, domain.FieldTypeBoolean:
				d.Selects = append(d.Selects, h.selectComponent(kind, def.Name, sc, lookups, f))
			case domain.FieldTypeNumber, domain.FieldTypeDate:
				typ := "number"
				if def.Kind().Type() == domain.FieldTypeDate {
					typ = "date"
				}
				keys := domain.FilterKeysFor(def)
				d.Ranges = append(d.Ranges, records.RangeFilter{
					Label:     def.Label,
					Type:      typ,
					From:      records.InputFilter{Key: keys[0], Label: def.Label, Value: first(f[keys[0]])},
					To:        records.InputFilter{Key: keys[1], Label: def.Label, Value: first(f[keys[1]])},
					FromLabel: h.messages.T("ui.from"),
					ToLabel:   h.messages.T("ui.to"),
				})
			default:
				typ := "text"
				if def.Kind().Type() == domain.FieldTypePhone {
					typ = "tel"
				}
				d.Inputs = append(d.Inputs, records.InputFilter{
					Key:   def.Name,
					Label: def.Label,
					Type:  typ,
					Value: first(f[def.Name]),
				})
			}
		}
	}

	if kind.UsesTypes {
		d.Checks = append(d.Checks, records.CheckFilter{
			Key:     domain.FilterShowInactive,
			Label:   h.messages.T("filter." + domain.FilterShowInactive),
			Checked: first(f[domain.FilterShowInactive]) == "true",
		})
	}
	return d
}

func (h *PageHandler) selectComponent(kind domain.EntityKind, name string, sc *schema.Schema, lookups domain.Lookups, f domain.Filters) templ.Component {
	sb, view, ok := h.widget(kind, name, sc, lookups)
	if !ok {
		return templ.NopComponent
	}
	sb.SetValue(f[name])
	return selectbox.Component(sb, view)
}

// widget builds the searchable select of filter name with its options.
func (h *PageHandler) widget(kind domain.EntityKind, name string, sc *schema.Schema, lookups domain.Lookups) (*selectbox.Select, selectbox.View, bool) {
	var (
		items    []selectbox.Item
		label    string
		multiple = true
	)

	switch {
	case isStaticSelect(kind, name):
		label = h.messages.T("column." + name)
		switch name {
		case domain.FilterSource:
			items = namedItems(lookups.Sources)
		case domain.FilterUser:
			items = namedItems(lookups.Users)
		case domain.FilterProduct:
			items = namedItems(lookups.Products)
		}
	case sc != nil:
		def, ok := filterableField(sc, name)
		if !ok {
			return nil, selectbox.View{}, false
		}
		label = def.Label
		switch def.Kind().Type() {
		case domain.FieldTypeList:
			for _, lv := range def.ListValues {
				items = append(items, selectbox.Item{ID: strconv.FormatInt(lv.ID, 10), Name: lv.Value})
			}
		case domain.FieldTypeBoolean:
			multiple = false
			items = []selectbox.Item{
				{ID: "true", Name: h.messages.T(apiclient.MsgYes)},
				{ID: "false", Name: h.messages.T(apiclient.MsgNo)},
			}
		default:
			return nil, selectbox.View{}, false
		}
	default:
		return nil, selectbox.View{}, false
	}

	sb := selectbox.New(name, multiple)
	sb.Placeholder = h.messages.T("ui.search")
	sb.Populate(items)
	view := selectbox.View{
		Endpoint: "/" + kind.Slug + "/select/" + url.PathEscape(name),
		Label:    label,
		Debounce: h.selectDebounce,
	}
	return sb, view, true
}

// currentSchema is the schema of the session's selected entity type, or nil.
func (h *PageHandler) currentSchema(ctx context.Context, s *auth.Session, kind domain.EntityKind) (*schema.Schema, error) {
	if !kind.UsesTypes {
		return nil, nil
	}
	typeID, err := h.lists.EntityType(ctx, s.Namespace, "")
	if err != nil {
		return nil, err
	}
	return h.lists.Schema(ctx, s.Namespace, typeID)
}

func (h *PageHandler) layout(r *http.Request, s *auth.Session, active, title string) shared.LayoutData {
	nav := make([]shared.NavItem, 0, len(domain.Kinds))
	for _, k := range domain.Kinds {
		nav = append(nav, shared.NavItem{
			Href:   "/" + k.Slug,
			Label:  h.messages.T("nav." + k.Slug),
			Active: k.Slug == active,
		})
	}
	d := shared.LayoutData{
		Title:       title,
		Lang:        h.messages.Lang(),
		CSRFToken:   csrf.Token(r.Context()),
		Nav:         nav,
		LogoutLabel: h.messages.T("ui.logout"),
		LoadingText: h.messages.T("ui.loading"),
	}
	if s != nil && s.User != nil {
		d.User = &shared.UserDisplay{Name: s.User.FullName, Role: s.User.Role}
	}
	return d
}

// =============================================================================
// Request Helpers
// =============================================================================

// begin resolves the kind and the session of a request. It has answered the
// request itself when ok is false.
func (h *PageHandler) begin(w http.ResponseWriter, r *http.Request) (domain.EntityKind, *auth.Session, bool) {
	kind, ok := domain.KindBySlug(r.PathValue("kind"))
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return domain.EntityKind{}, nil, false
	}
	s := auth.GetSession(r.Context())
	if s == nil {
		redirect(w, r, LoginURL(ReturnTo(r)))
		return domain.EntityKind{}, nil, false
	}
	return kind, s, true
}

// fail answers a failed page request. Stale list responses are dropped
// silently, a token the backend no longer accepts ends the session, and
// everything else is shown as a message.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.ErrorCode(err) == domain.ESTALE && isHTMX(r) {
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		h.logger.Info("backend rejected token", "path", r.URL.Path)
		session.ClearCookie(w, h.isSecure)
		redirect(w, r, LoginURL(ReturnTo(r)))
		return
	}
	ShowMessage(w, r, h.logger, h.messages, err)
}

// render writes components one after another as an HTML response.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, components ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, c := range components {
		if err := c.Render(r.Context(), w); err != nil {
			h.logger.Error("failed to render", "path", r.URL.Path, "error", err)
			return
		}
	}
}

func pageURL(kind domain.EntityKind, st controller.State, typeID int64) string {
	return "/" + kind.Slug + "?" + stateQuery(st, typeID)
}

func tableURL(kind domain.EntityKind, st controller.State, typeID int64) string {
	return "/" + kind.Slug + "/table?" + stateQuery(st, typeID)
}

func stateQuery(st controller.State, typeID int64) string {
	v := st.Values()
	if typeID > 0 {
		v.Set(typeParam, strconv.FormatInt(typeID, 10))
	}
	return v.Encode()
}

func recordURL(kind domain.EntityKind, id int64) string {
	return "/" + kind.Slug + "/records/" + strconv.FormatInt(id, 10)
}

func fieldURL(kind domain.EntityKind, id, fieldID int64) string {
	return recordURL(kind, id) + "/fields/" + strconv.FormatInt(fieldID, 10)
}

// isStaticSelect reports whether kind offers the static select filter name.
func isStaticSelect(kind domain.EntityKind, name string) bool {
	switch name {
	case domain.FilterSource:
		return kind.UsesTypes
	case domain.FilterUser, domain.FilterProduct:
		for _, c := range kind.StaticColumns {
			if c == name {
				return true
			}
		}
	}
	return false
}

func hasDateColumn(kind domain.EntityKind, key string) bool {
	col := domain.ColumnCreatedAt
	if key == domain.FilterUpdatedAtFrom || key == domain.FilterUpdatedAtTo {
		col = domain.ColumnUpdatedAt
	}
	for _, c := range kind.StaticColumns {
		if c == col {
			return true
		}
	}
	return false
}

func filterableField(sc *schema.Schema, name string) (domain.FieldDefinition, bool) {
	for _, f := range sc.Filterable {
		if f.Name == name {
			return f, true
		}
	}
	return domain.FieldDefinition{}, false
}

// namedItems turns a lookup map into options sorted by name.
func namedItems(m map[int64]string) []selectbox.Item {
	items := make([]selectbox.Item, 0, len(m))
	for id, name := range m {
		items = append(items, selectbox.Item{ID: strconv.FormatInt(id, 10), Name: name})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers the list page routes of every kind behind
// protect, e.g. the session requirement. Kinds are registered by their
// literal slug so the routes never overlap /static/ or /login. GET /
// redirects to the first list page.
func (h *PageHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /{$}", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, HomePath(), http.StatusSeeOther)
	})))

	for _, k := range domain.Kinds {
		slug := k.Slug
		handle := func(method, suffix string, fn http.HandlerFunc) {
			mux.Handle(method+" /"+slug+suffix, protect(withKind(slug, fn)))
		}
		handle("GET", "", h.Index)
		handle("GET", "/table", h.Table)
		handle("POST", "/filters", h.Filters)
		handle("POST", "/filters/clear", h.ClearFilters)
		handle("GET", "/select/{name}", h.Select)
		handle("POST", "/export", h.Export)
		handle("GET", "/records/{id}", h.Details)
		handle("DELETE", "/records/{id}", h.Delete)
		handle("GET", "/records/{id}/fields/{field}/edit", h.EditField)
		handle("PATCH", "/records/{id}/fields/{field}", h.SaveField)
		handle("POST", "/records/{id}/fields/{field}/cancel", h.CancelField)
	}
}

// withKind exposes the kind slug of a route as the "kind" path value.
func withKind(slug string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue("kind", slug)
		next.ServeHTTP(w, r)
	})
}
