// Package domain contains the presentation-layer types shared by every list page:
// entity schemas, field definitions and their type variants, records, filters and
// the page envelope returned by the backend search endpoints.
package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldType names the value type of a configurable field.
type FieldType string

const (
	FieldTypeText    FieldType = "TEXT"
	FieldTypePhone   FieldType = "PHONE"
	FieldTypeNumber  FieldType = "NUMBER"
	FieldTypeDate    FieldType = "DATE"
	FieldTypeList    FieldType = "LIST"
	FieldTypeBoolean FieldType = "BOOLEAN"
)

// DateLayout is the wire format of DATE values and date filter inputs.
const DateLayout = "2006-01-02"

// DisplayDateLayout is how DATE values appear in table cells.
const DisplayDateLayout = "02.01.2006"

// EmptyCell is rendered in place of a missing value so cells never collapse.
const EmptyCell = "—"

// EntityType is a backend-configurable schema that a table of records conforms to.
type EntityType struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	NameFieldLabel string `json:"nameFieldLabel"`
}

// ListValue is one allowed value of a LIST field.
type ListValue struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// FieldDefinition describes one configurable field of an entity type.
type FieldDefinition struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Label             string      `json:"label"`
	Type              FieldType   `json:"fieldType"`
	Required          bool        `json:"isRequired"`
	Searchable        bool        `json:"isSearchable"`
	Filterable        bool        `json:"isFilterable"`
	VisibleInTable    bool        `json:"isVisibleInTable"`
	VisibleInCreate   bool        `json:"isVisibleInCreate"`
	AllowMultiple     bool        `json:"allowMultiple"`
	DisplayOrder      int         `json:"displayOrder"`
	ColumnWidth       int         `json:"columnWidth"`
	ValidationPattern string      `json:"validationPattern,omitempty"`
	ListValues        []ListValue `json:"listValues,omitempty"`
}

// Kind returns the type variant for the field.
func (f FieldDefinition) Kind() FieldKind {
	return KindOf(f.Type)
}

// ListLabel returns the label of a list value id, or "" when unknown.
func (f FieldDefinition) ListLabel(id int64) string {
	for _, lv := range f.ListValues {
		if lv.ID == id {
			return lv.Value
		}
	}
	return ""
}

// SortByDisplayOrder orders fields by DisplayOrder, keeping the original order for ties.
func SortByDisplayOrder(fields []FieldDefinition) []FieldDefinition {
	out := make([]FieldDefinition, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// FieldValue is one value of a record for a field. Exactly one slot is populated,
// according to the field's type.
type FieldValue struct {
	FieldID      int64      `json:"fieldId"`
	ValueText    *string    `json:"valueText,omitempty"`
	ValueNumber  *float64   `json:"valueNumber,omitempty"`
	ValueDate    *string    `json:"valueDate,omitempty"`
	ValueBoolean *bool      `json:"valueBoolean,omitempty"`
	ValueList    *ListValue `json:"valueList,omitempty"`
}

// =============================================================================
// Field kinds
// =============================================================================

// FieldKind is the behaviour of one field type. Formatting, input parsing and
// validation for a type live together in its variant.
type FieldKind interface {
	Type() FieldType
	// Format renders a stored value for display. It returns "" for an empty slot.
	Format(def FieldDefinition, v FieldValue) string
	// InputValue renders a stored value as form input text, the inverse of ParseInput.
	InputValue(v FieldValue) string
	// ParseInput converts raw form input into a value for def.
	ParseInput(def FieldDefinition, raw string) (FieldValue, error)
	// Validate checks raw form input against def without parsing it into a value.
	Validate(def FieldDefinition, raw string) error
	// Ranged reports whether filters on this type use From/To bounds.
	Ranged() bool
}

var kinds = map[FieldType]FieldKind{
	FieldTypeText:    textKind{typ: FieldTypeText},
	FieldTypePhone:   phoneKind{},
	FieldTypeNumber:  numberKind{},
	FieldTypeDate:    dateKind{},
	FieldTypeList:    listKind{},
	FieldTypeBoolean: booleanKind{},
}

// KindOf returns the variant for t; unknown types behave as TEXT.
func KindOf(t FieldType) FieldKind {
	if k, ok := kinds[FieldType(strings.ToUpper(string(t)))]; ok {
		return k
	}
	return kinds[FieldTypeText]
}

func requiredCheck(def FieldDefinition, raw string) error {
	if def.Required && strings.TrimSpace(raw) == "" {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s is required", def.Label))
	}
	return nil
}

func patternCheck(def FieldDefinition, raw string) error {
	if def.ValidationPattern == "" || raw == "" {
		return nil
	}
	re, err := regexp.Compile(def.ValidationPattern)
	if err != nil {
		// A broken pattern from the backend must not block input.
		return nil
	}
	if !re.MatchString(raw) {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s has an invalid format", def.Label))
	}
	return nil
}

type textKind struct{ typ FieldType }

func (k textKind) Type() FieldType { return k.typ }
func (textKind) Ranged() bool      { return false }

func (textKind) Format(_ FieldDefinition, v FieldValue) string {
	if v.ValueText == nil {
		return ""
	}
	return *v.ValueText
}

func (k textKind) InputValue(v FieldValue) string {
	return k.Format(FieldDefinition{}, v)
}

func (k textKind) Validate(def FieldDefinition, raw string) error {
	if err := requiredCheck(def, raw); err != nil {
		return err
	}
	return patternCheck(def, strings.TrimSpace(raw))
}

func (k textKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(raw)
	return FieldValue{FieldID: def.ID, ValueText: &s}, nil
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,19}$`)

type phoneKind struct{ textKind }

func (phoneKind) Type() FieldType { return FieldTypePhone }

func (k phoneKind) Validate(def FieldDefinition, raw string) error {
	if err := requiredCheck(def, raw); err != nil {
		return err
	}
	s := strings.TrimSpace(raw)
	if s != "" && !phonePattern.MatchString(s) {
		return NewValidationError("field.Validate", def.Name, "Invalid phone number")
	}
	return patternCheck(def, s)
}

func (k phoneKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(raw)
	return FieldValue{FieldID: def.ID, ValueText: &s}, nil
}

type numberKind struct{}

func (numberKind) Type() FieldType { return FieldTypeNumber }
func (numberKind) Ranged() bool    { return true }

func (numberKind) Format(_ FieldDefinition, v FieldValue) string {
	if v.ValueNumber == nil {
		return ""
	}
	return strconv.FormatFloat(*v.ValueNumber, 'f', -1, 64)
}

func (k numberKind) InputValue(v FieldValue) string {
	return k.Format(FieldDefinition{}, v)
}

func (numberKind) Validate(def FieldDefinition, raw string) error {
	if err := requiredCheck(def, raw); err != nil {
		return err
	}
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s must be a number", def.Label))
	}
	return nil
}

func (k numberKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return FieldValue{FieldID: def.ID}, nil
	}
	n, _ := strconv.ParseFloat(s, 64)
	return FieldValue{FieldID: def.ID, ValueNumber: &n}, nil
}

type dateKind struct{}

func (dateKind) Type() FieldType { return FieldTypeDate }
func (dateKind) Ranged() bool    { return true }

func (dateKind) Format(_ FieldDefinition, v FieldValue) string {
	if v.ValueDate == nil || *v.ValueDate == "" {
		return ""
	}
	raw := *v.ValueDate
	if len(raw) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, raw[:len(DateLayout)]); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return raw
}

func (dateKind) InputValue(v FieldValue) string {
	if v.ValueDate == nil {
		return ""
	}
	raw := *v.ValueDate
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	return raw
}

func (dateKind) Validate(def FieldDefinition, raw string) error {
	if err := requiredCheck(def, raw); err != nil {
		return err
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s must be a date", def.Label))
	}
	return nil
}

func (k dateKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return FieldValue{FieldID: def.ID}, nil
	}
	return FieldValue{FieldID: def.ID, ValueDate: &s}, nil
}

type listKind struct{}

func (listKind) Type() FieldType { return FieldTypeList }
func (listKind) Ranged() bool    { return false }

func (listKind) Format(def FieldDefinition, v FieldValue) string {
	if v.ValueList == nil {
		return ""
	}
	if v.ValueList.Value != "" {
		return v.ValueList.Value
	}
	return def.ListLabel(v.ValueList.ID)
}

func (listKind) InputValue(v FieldValue) string {
	if v.ValueList == nil || v.ValueList.ID == 0 {
		return ""
	}
	return strconv.FormatInt(v.ValueList.ID, 10)
}

func (listKind) Validate(def FieldDefinition, raw string) error {
	if err := requiredCheck(def, raw); err != nil {
		return err
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || def.ListLabel(id) == "" {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s: unknown option", def.Label))
	}
	return nil
}

func (k listKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return FieldValue{FieldID: def.ID}, nil
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return FieldValue{FieldID: def.ID, ValueList: &ListValue{ID: id, Value: def.ListLabel(id)}}, nil
}

type booleanKind struct{}

func (booleanKind) Type() FieldType { return FieldTypeBoolean }
func (booleanKind) Ranged() bool    { return false }

// Format returns the canonical "true"/"false"; display labels are localized by the caller.
func (booleanKind) Format(_ FieldDefinition, v FieldValue) string {
	if v.ValueBoolean == nil {
		return ""
	}
	return strconv.FormatBool(*v.ValueBoolean)
}

func (k booleanKind) InputValue(v FieldValue) string {
	return k.Format(FieldDefinition{}, v)
}

func (booleanKind) Validate(def FieldDefinition, raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return requiredCheck(def, raw)
	}
	if _, err := strconv.ParseBool(s); err != nil {
		return NewValidationError("field.Validate", def.Name, fmt.Sprintf("%s must be yes or no", def.Label))
	}
	return nil
}

func (k booleanKind) ParseInput(def FieldDefinition, raw string) (FieldValue, error) {
	if err := k.Validate(def, raw); err != nil {
		return FieldValue{}, err
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return FieldValue{FieldID: def.ID}, nil
	}
	b, _ := strconv.ParseBool(s)
	return FieldValue{FieldID: def.ID, ValueBoolean: &b}, nil
}
