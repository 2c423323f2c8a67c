// Package controller runs the list pages: it turns the list position, the
// session's filters and the entity type into a backend search, and turns the
// answer into a table and a pager.
//
// Responses that arrive after a newer request for the same list are discarded
// with a stale error instead of repainting over fresher data.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/filterstate"
	"github.com/DukeRupert/tradedesk/internal/metrics"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/session"
	"github.com/DukeRupert/tradedesk/internal/table"
	"github.com/DukeRupert/tradedesk/internal/templ/components/pagination"
	"golang.org/x/sync/errgroup"
)

// Searcher loads list pages and lookup names. *apiclient.Client implements it.
type Searcher interface {
	Search(ctx context.Context, kind domain.EntityKind, p apiclient.SearchParams) (*domain.Page, error)
	Entities(ctx context.Context) domain.Lookups
}

// Schemas resolves entity type schemas. *schema.Cache implements it.
type Schemas interface {
	Load(ctx context.Context, ns string, typeID int64) (*schema.Schema, error)
}

// Labeler localizes column labels and the pager summary.
type Labeler interface {
	T(key string, args ...any) string
}

// View is everything a list page renders.
type View struct {
	Kind        domain.EntityKind
	State       State
	TypeID      int64
	Schema      *schema.Schema // nil for kinds without entity types
	Columns     []table.Column
	Table       table.Table
	Pager       pagination.State
	Filters     domain.Filters
	FilterCount int
	Lookups     domain.Lookups
}

// ListController serves every list page.
type ListController struct {
	search  Searcher
	schemas Schemas
	store   session.Store
	logger  *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// New creates a controller.
func New(search Searcher, schemas Schemas, store session.Store, logger *slog.Logger) *ListController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListController{
		search:  search,
		schemas: schemas,
		store:   store,
		logger:  logger,
		gens:    make(map[string]uint64),
	}
}

// Filters returns the filter manager of a session.
func (c *ListController) Filters(ns string) *filterstate.Manager {
	return filterstate.New(session.Scope(c.store, ns), c.logger)
}

// Schema returns the schema of typeID, or nil when typeID is zero.
func (c *ListController) Schema(ctx context.Context, ns string, typeID int64) (*schema.Schema, error) {
	if typeID <= 0 {
		return nil, nil
	}
	return c.schemas.Load(ctx, ns, typeID)
}

// SearchTerm resolves the search term of a request. A submitted term is
// persisted (a blank one deletes the stored term); otherwise the stored term
// is used.
func (c *ListController) SearchTerm(ctx context.Context, ns string, submitted *string) (string, error) {
	s := session.Scope(c.store, ns)
	if submitted == nil {
		term, _, err := s.Get(ctx, session.KeySearchTerm)
		if err != nil {
			return "", fmt.Errorf("read search term: %w", err)
		}
		return term, nil
	}

	term := strings.TrimSpace(*submitted)
	var err error
	if term == "" {
		err = s.Delete(ctx, session.KeySearchTerm)
	} else {
		err = s.Set(ctx, session.KeySearchTerm, term)
	}
	if err != nil {
		return "", fmt.Errorf("save search term: %w", err)
	}
	return term, nil
}

// EntityType resolves the entity type of a request. A submitted id that
// differs from the stored one is persisted and drops the type-specific
// filters; otherwise the stored id is used. Zero means no type is selected.
func (c *ListController) EntityType(ctx context.Context, ns string, submitted string) (int64, error) {
	s := session.Scope(c.store, ns)
	stored, _, err := s.Get(ctx, session.KeyClientTypeID)
	if err != nil {
		return 0, fmt.Errorf("read entity type: %w", err)
	}
	current, _ := strconv.ParseInt(stored, 10, 64)

	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return current, nil
	}
	id, err := strconv.ParseInt(submitted, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("controller.EntityType", fmt.Sprintf("invalid entity type %q", submitted))
	}
	if id == current {
		return id, nil
	}

	if current != 0 {
		if _, err := c.Filters(ns).ChangeEntityType(ctx); err != nil {
			return 0, err
		}
	}
	if err := s.Set(ctx, session.KeyClientTypeID, strconv.FormatInt(id, 10)); err != nil {
		return 0, fmt.Errorf("save entity type: %w", err)
	}
	c.logger.Debug("entity type changed", "namespace", ns, "from", current, "to", id)
	return id, nil
}

// Params builds the backend search parameters of a list view from its
// position and the session's filters.
func (c *ListController) Params(ctx context.Context, ns string, kind domain.EntityKind, st State, sc *schema.Schema) (apiclient.SearchParams, error) {
	var known []string
	if sc != nil {
		known = sc.FilterKeys()
	}
	filters, err := c.Filters(ns).Restore(ctx, known)
	if err != nil {
		return apiclient.SearchParams{}, err
	}
	p := apiclient.SearchParams{
		Page:      st.Page,
		Size:      st.Size,
		Sort:      st.Sort,
		Direction: st.Direction,
		Q:         st.Query,
		Filters:   filters,
	}
	if kind.UsesTypes && sc != nil {
		p.ClientTypeID = sc.Type.ID
	}
	return p, nil
}

// Load fetches and builds one list view. If another Load for the same
// session and kind starts before this one's search returns, the result is
// discarded and a domain.ESTALE error is returned.
func (c *ListController) Load(ctx context.Context, ns string, kind domain.EntityKind, st State, typeID int64, labels Labeler) (*View, error) {
	const op = "controller.Load"
	ticket := c.begin(ns, kind.Slug)

	var sc *schema.Schema
	if kind.UsesTypes {
		var err error
		if sc, err = c.Schema(ctx, ns, typeID); err != nil {
			return nil, err
		}
	}

	params, err := c.Params(ctx, ns, kind, st, sc)
	if err != nil {
		return nil, err
	}

	var (
		page    *domain.Page
		lookups domain.Lookups
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = c.search.Search(gctx, kind, params)
		return err
	})
	g.Go(func() error {
		lookups = c.search.Entities(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !c.current(ns, kind.Slug, ticket) {
		metrics.StaleDiscarded(kind.Slug)
		c.logger.Debug("discarding stale list response", "kind", kind.Slug, "namespace", ns, "page", st.Page)
		return nil, domain.Stale(op)
	}

	var et *domain.EntityType
	var visible []domain.FieldDefinition
	if sc != nil {
		et, visible = &sc.Type, sc.Visible
	}
	cols := table.Columns(kind, et, visible, labels)

	v := &View{
		Kind:        kind,
		State:       st,
		Schema:      sc,
		Columns:     cols,
		Table:       table.Build(kind, cols, page.Content, lookups, st.SortState(), labels),
		Pager:       pagination.Render(page.TotalElements, page.TotalPages, st.Page, labels),
		Filters:     params.Filters,
		FilterCount: filterstate.ActiveCount(params.Filters),
		Lookups:     lookups,
	}
	if sc != nil {
		v.TypeID = sc.Type.ID
	}
	return v, nil
}

// Forget drops a session's request generations, e.g. on logout.
func (c *ListController) Forget(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := ns + "/"
	for k := range c.gens {
		if strings.HasPrefix(k, prefix) {
			delete(c.gens, k)
		}
	}
}

func (c *ListController) begin(ns, kind string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := ns + "/" + kind
	c.gens[key]++
	return c.gens[key]
}

func (c *ListController) current(ns, kind string, ticket uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ns+"/"+kind] == ticket
}
