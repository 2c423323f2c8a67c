package domain

import "strings"

// Direction is a sort direction as the backend spells it.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DESC {
		return ASC
	}
	return DESC
}

// ParseDirection accepts any casing and falls back to def.
func ParseDirection(s string, def Direction) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return ASC
	case "DESC":
		return DESC
	default:
		return def
	}
}

// DefaultDirection is DESC for timestamp-like fields and ASC otherwise.
func DefaultDirection(field string) Direction {
	lower := strings.ToLower(field)
	if strings.HasSuffix(field, "At") || strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		return DESC
	}
	return ASC
}

// EntityKind describes one list page: which backend resource it searches and
// which columns and sort fields it offers.
type EntityKind struct {
	Slug          string   // URL segment, e.g. "clients"
	Title         string   // Page title
	APIPath       string   // Backend resource, e.g. "client"
	SearchPath    string   // "search" or "search-containers"
	DefaultSort   string   // Initial sort field
	Sortable      []string // Allow-list of sortable fields
	StaticColumns []string // Static column keys rendered besides dynamic fields
	UsesTypes     bool     // Page is parameterised by an entity (client) type
	ErrorPrefix   string   // Prefix of the backend's per-entity error codes
	Authority     string   // Authority prefix, e.g. "client" for "client:export"
}

// CanSort reports whether field is on the kind's sort allow-list.
func (k EntityKind) CanSort(field string) bool {
	for _, s := range k.Sortable {
		if s == field {
			return true
		}
	}
	return false
}

// Static column keys understood by the table renderer.
const (
	ColumnName      = "company"
	ColumnSource    = "source"
	ColumnUser      = "user"
	ColumnProduct   = "product"
	ColumnQuantity  = "quantity"
	ColumnAmount    = "amount"
	ColumnCurrency  = "currency"
	ColumnCreatedAt = "createdAt"
	ColumnUpdatedAt = "updatedAt"
)

// Kinds lists every list page the application serves.
var Kinds = []EntityKind{
	{
		Slug:          "clients",
		Title:         "Clients",
		APIPath:       "client",
		SearchPath:    "search",
		DefaultSort:   ColumnUpdatedAt,
		Sortable:      []string{ColumnUpdatedAt, ColumnCreatedAt, ColumnName},
		StaticColumns: []string{ColumnCreatedAt, ColumnUpdatedAt},
		UsesTypes:     true,
		ErrorPrefix:   "CLIENT",
		Authority:     "client",
	},
	{
		Slug:          "purchases",
		Title:         "Purchases",
		APIPath:       "purchase",
		SearchPath:    "search",
		DefaultSort:   ColumnUpdatedAt,
		Sortable:      []string{ColumnUpdatedAt, ColumnCreatedAt, ColumnQuantity, ColumnAmount},
		StaticColumns: []string{ColumnProduct, ColumnQuantity, ColumnAmount, ColumnUser, ColumnUpdatedAt},
		ErrorPrefix:   "PURCHASE",
		Authority:     "purchase",
	},
	{
		Slug:          "containers",
		Title:         "Containers",
		APIPath:       "container",
		SearchPath:    "search-containers",
		DefaultSort:   ColumnUpdatedAt,
		Sortable:      []string{ColumnQuantity, ColumnUpdatedAt},
		StaticColumns: []string{ColumnUser, ColumnQuantity, ColumnUpdatedAt},
		ErrorPrefix:   "CONTAINER",
		Authority:     "container",
	},
	{
		Slug:          "stock",
		Title:         "Stock",
		APIPath:       "warehouse",
		SearchPath:    "search",
		DefaultSort:   ColumnUpdatedAt,
		Sortable:      []string{ColumnQuantity, ColumnUpdatedAt},
		StaticColumns: []string{ColumnProduct, ColumnQuantity, ColumnUpdatedAt},
		ErrorPrefix:   "STOCK",
		Authority:     "warehouse",
	},
	{
		Slug:          "transactions",
		Title:         "Transactions",
		APIPath:       "transaction",
		SearchPath:    "search",
		DefaultSort:   ColumnCreatedAt,
		Sortable:      []string{ColumnCreatedAt, ColumnAmount},
		StaticColumns: []string{ColumnAmount, ColumnCurrency, ColumnUser, ColumnCreatedAt},
		ErrorPrefix:   "TRANSACTION",
		Authority:     "finance",
	},
}

// KindBySlug looks a kind up by its URL segment.
func KindBySlug(slug string) (EntityKind, bool) {
	for _, k := range Kinds {
		if k.Slug == slug {
			return k, true
		}
	}
	return EntityKind{}, false
}
