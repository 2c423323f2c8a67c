// Package schema caches entity types and their field definitions per session.
// A type's schema is fetched once, when the user first selects it, and then
// served from memory until the session signs out or goes idle.
package schema

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Loader fetches schema data from the backend. *apiclient.Client implements it.
type Loader interface {
	ClientType(ctx context.Context, id int64) (*domain.EntityType, error)
	Fields(ctx context.Context, typeID int64, set apiclient.FieldSet) ([]domain.FieldDefinition, error)
}

// Schema is an entity type with its field lists, each sorted by display order.
type Schema struct {
	Type       domain.EntityType
	Fields     []domain.FieldDefinition
	Visible    []domain.FieldDefinition
	Filterable []domain.FieldDefinition
	Create     []domain.FieldDefinition
}

// Field returns the field with the given id.
func (s *Schema) Field(id int64) (domain.FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return domain.FieldDefinition{}, false
}

// FilterKeys lists the dynamic filter keys the filterable fields contribute.
func (s *Schema) FilterKeys() []string {
	var keys []string
	for _, f := range s.Filterable {
		keys = append(keys, domain.FilterKeysFor(f)...)
	}
	return keys
}

type entry struct {
	schema   *Schema
	lastUsed time.Time
}

// Cache holds schemas per session namespace.
type Cache struct {
	loader Loader
	group  singleflight.Group
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]map[int64]*entry
}

// NewCache creates an empty cache.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		now:     time.Now,
		entries: make(map[string]map[int64]*entry),
	}
}

// Load returns the schema of typeID for the session ns, fetching it on first
// use. Concurrent first loads of the same schema share one fetch.
func (c *Cache) Load(ctx context.Context, ns string, typeID int64) (*Schema, error) {
	const op = "schema.Load"
	if typeID <= 0 {
		return nil, domain.Invalid(op, "entity type is required")
	}

	if s := c.lookup(ns, typeID); s != nil {
		metrics.SchemaLookup(true)
		return s, nil
	}
	metrics.SchemaLookup(false)

	v, err, _ := c.group.Do(ns+":"+strconv.FormatInt(typeID, 10), func() (any, error) {
		if s := c.lookup(ns, typeID); s != nil {
			return s, nil
		}
		// shared by every waiter, so one caller's cancellation must not fail the rest
		s, err := c.fetch(context.WithoutCancel(ctx), typeID)
		if err != nil {
			return nil, err
		}
		c.store(ns, typeID, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

func (c *Cache) fetch(ctx context.Context, typeID int64) (*Schema, error) {
	s := &Schema{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		et, err := c.loader.ClientType(gctx, typeID)
		if err != nil {
			return err
		}
		s.Type = *et
		return nil
	})

	lists := []struct {
		set apiclient.FieldSet
		dst *[]domain.FieldDefinition
	}{
		{apiclient.AllFields, &s.Fields},
		{apiclient.VisibleFields, &s.Visible},
		{apiclient.FilterableFields, &s.Filterable},
		{apiclient.CreateFields, &s.Create},
	}
	for _, l := range lists {
		g.Go(func() error {
			fields, err := c.loader.Fields(gctx, typeID, l.set)
			if err != nil {
				return err
			}
			*l.dst = domain.SortByDisplayOrder(fields)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Cache) lookup(ns string, typeID int64) *Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[ns][typeID]
	if !ok {
		return nil
	}
	e.lastUsed = c.now()
	return e.schema
}

func (c *Cache) store(ns string, typeID int64, s *Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.entries[ns]
	if !ok {
		bucket = make(map[int64]*entry)
		c.entries[ns] = bucket
	}
	bucket[typeID] = &entry{schema: s, lastUsed: c.now()}
}

// Forget drops every schema cached for ns.
func (c *Cache) Forget(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ns)
}

// Prune drops schemas unused for longer than maxIdle and returns how many
// were dropped.
func (c *Cache) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-maxIdle)
	n := 0
	for ns, bucket := range c.entries {
		for id, e := range bucket {
			if e.lastUsed.Before(cutoff) {
				delete(bucket, id)
				n++
			}
		}
		if len(bucket) == 0 {
			delete(c.entries, ns)
		}
	}
	return n
}
