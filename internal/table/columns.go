// Package table builds the list table of an entity kind: the merged column
// set, the header and body cells for a page of records, and sort toggling.
package table

import (
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// Labeler localizes static column labels and cell words.
type Labeler interface {
	T(key string, args ...any) string
}

// Orders of columns that are not declared by the schema. Synthetic columns
// come first; static columns follow the dynamic ones in their kind's order.
const (
	syntheticNameOrder   = -2
	syntheticSourceOrder = -1
	staticOrderBase      = 10000
)

// Column is one table column.
type Column struct {
	Key       string // static column key or dynamic field name
	Label     string
	Order     int
	Width     int
	Field     *domain.FieldDefinition // set for dynamic columns
	Primary   bool                    // the click-activated name column
	Synthetic bool
}

// Static reports whether the column renders a static record attribute.
func (c Column) Static() bool {
	return c.Field == nil
}

// Columns merges the kind's static columns with the table-visible dynamic
// fields and orders them by display order, keeping the original order for ties.
// Kinds parameterised by an entity type get a primary-name and a source
// column even when the schema does not declare them; a declared field named
// like either column takes its place and keeps its label and order.
func Columns(kind domain.EntityKind, et *domain.EntityType, fields []domain.FieldDefinition, labels Labeler) []Column {
	var cols []Column
	declaredName, declaredSource := false, false

	for _, f := range fields {
		col := Column{Key: f.Name, Label: f.Label, Order: f.DisplayOrder, Width: f.ColumnWidth, Field: &f}
		switch {
		case kind.UsesTypes && isNameField(f.Name):
			declaredName = true
			col.Key, col.Field, col.Primary = domain.ColumnName, nil, true
		case kind.UsesTypes && strings.EqualFold(f.Name, domain.ColumnSource):
			declaredSource = true
			col.Key, col.Field = domain.ColumnSource, nil
		}
		if col.Label == "" {
			col.Label = f.Name
		}
		cols = append(cols, col)
	}

	if kind.UsesTypes {
		if !declaredName {
			label := labels.T("column." + domain.ColumnName)
			if et != nil && et.NameFieldLabel != "" {
				label = et.NameFieldLabel
			}
			cols = append(cols, Column{Key: domain.ColumnName, Label: label, Order: syntheticNameOrder, Primary: true, Synthetic: true})
		}
		if !declaredSource {
			cols = append(cols, Column{Key: domain.ColumnSource, Label: labels.T("column." + domain.ColumnSource), Order: syntheticSourceOrder, Synthetic: true})
		}
	}

	for i, key := range kind.StaticColumns {
		cols = append(cols, Column{Key: key, Label: labels.T("column." + key), Order: staticOrderBase + i})
	}

	cols = sortColumns(cols)

	if !kind.UsesTypes && len(cols) > 0 {
		cols[0].Primary = true
	}
	return cols
}

func isNameField(name string) bool {
	return strings.EqualFold(name, domain.ColumnName) || strings.EqualFold(name, "name")
}

func sortColumns(cols []Column) []Column {
	defs := make([]domain.FieldDefinition, len(cols))
	for i, c := range cols {
		defs[i] = domain.FieldDefinition{ID: int64(i), DisplayOrder: c.Order}
	}
	out := make([]Column, 0, len(cols))
	for _, d := range domain.SortByDisplayOrder(defs) {
		out = append(out, cols[d.ID])
	}
	return out
}
