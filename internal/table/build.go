package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
)

// TimestampLayout formats static timestamp columns.
const TimestampLayout = "02.01.2006 15:04"

// Header is one header cell.
type Header struct {
	Key       string
	Label     string
	Width     int
	Sortable  bool
	Active    bool
	Direction domain.Direction
}

// Cell is one body cell. Placeholder cells show domain.EmptyCell so that no
// cell is ever blank.
type Cell struct {
	Lines       []string
	Placeholder bool
	Primary     bool
}

// Text is the cell content with lines joined by newlines.
func (c Cell) Text() string {
	if c.Placeholder {
		return domain.EmptyCell
	}
	return strings.Join(c.Lines, "\n")
}

// Row is one record.
type Row struct {
	ID    int64
	Cells []Cell
}

// Table is a built table ready to render.
type Table struct {
	Kind    domain.EntityKind
	Headers []Header
	Rows    []Row
}

// Build renders a page of records into header and body cells. Only columns
// on the kind's sort allow-list are marked sortable.
func Build(kind domain.EntityKind, cols []Column, records []domain.Record, lookups domain.Lookups, sort SortState, labels Labeler) Table {
	t := Table{Kind: kind, Headers: make([]Header, 0, len(cols)), Rows: make([]Row, 0, len(records))}

	for _, c := range cols {
		h := Header{Key: c.Key, Label: c.Label, Width: c.Width, Sortable: kind.CanSort(c.Key)}
		if h.Sortable && sort.Field == c.Key {
			h.Active = true
			h.Direction = sort.Direction
		}
		t.Headers = append(t.Headers, h)
	}

	for _, r := range records {
		row := Row{ID: r.ID, Cells: make([]Cell, 0, len(cols))}
		for _, c := range cols {
			cell := buildCell(c, r, lookups, labels)
			cell.Primary = c.Primary
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func buildCell(c Column, r domain.Record, lookups domain.Lookups, labels Labeler) Cell {
	var lines []string
	if c.Static() {
		if v := staticValue(c.Key, r, lookups); v != "" {
			lines = []string{v}
		}
	} else {
		lines = FieldLines(*c.Field, r, labels)
	}
	if len(lines) == 0 {
		return Cell{Placeholder: true}
	}
	return Cell{Lines: lines}
}

// FieldLines formats the record's values for def, one line per value. Fields
// that do not allow multiple values show only their first value.
func FieldLines(def domain.FieldDefinition, r domain.Record, labels Labeler) []string {
	kind := def.Kind()
	values := r.ValuesFor(def.ID)
	if !def.AllowMultiple && len(values) > 1 {
		values = values[:1]
	}

	var lines []string
	for _, v := range values {
		s := kind.Format(def, v)
		if kind.Type() == domain.FieldTypeBoolean && s != "" {
			s = labels.T(boolKey(s == "true"))
		}
		if strings.TrimSpace(s) != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

func boolKey(b bool) string {
	if b {
		return apiclient.MsgYes
	}
	return apiclient.MsgNo
}

func staticValue(key string, r domain.Record, lk domain.Lookups) string {
	switch key {
	case domain.ColumnName:
		return strings.TrimSpace(r.PrimaryName())
	case domain.ColumnSource:
		return lookup(lk.Sources, r.SourceID)
	case domain.ColumnUser:
		return lookup(lk.Users, r.UserID)
	case domain.ColumnProduct:
		return lookup(lk.Products, r.ProductID)
	case domain.ColumnQuantity:
		return number(r.Quantity)
	case domain.ColumnAmount:
		return number(r.Amount)
	case domain.ColumnCurrency:
		return r.Currency
	case domain.ColumnCreatedAt:
		return timestamp(r.CreatedAt)
	case domain.ColumnUpdatedAt:
		return timestamp(r.UpdatedAt)
	}
	return ""
}

// lookup renders a foreign key by name, falling back to the id itself.
func lookup(m map[int64]string, id *int64) string {
	if id == nil {
		return ""
	}
	if name, ok := m[*id]; ok && name != "" {
		return name
	}
	return strconv.FormatInt(*id, 10)
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
