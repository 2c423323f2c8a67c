package modal

import (
	"strconv"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/a-h/templ"
)

// RootID is the element modals are swapped into.
const RootID = "modal-root"

// CloseEvent is the window event that closes the open modal. Handlers send it
// through the HX-Trigger response header.
const CloseEvent = "close-modal"

// Shell is the frame of a dialog.
type Shell struct {
	ID         string
	Title      string
	Body       templ.Component
	Footer     templ.Component
	CloseLabel string
}

func (s Shell) closeLabel() string {
	if s.CloseLabel == "" {
		return "close"
	}
	return s.CloseLabel
}

// FieldRow is one label/value line of the details dialog.
type FieldRow struct {
	FieldID int64
	Label   string
	Lines   []string
	EditURL string // empty when the field cannot be edited
}

// RowID is the element id of a field row; edit and display swap it in place.
func RowID(fieldID int64) string {
	return "field-" + strconv.FormatInt(fieldID, 10)
}

// Editor is the input form that replaces a FieldDisplay while editing.
type Editor struct {
	Field     domain.FieldDefinition
	Values    []string // input values, one per stored value
	SaveURL   string
	CancelURL string
	YesLabel  string
	NoLabel   string
	SaveLabel string
	Cancel    string
	Error     string
}

func (e Editor) inputID() string {
	return "input-" + RowID(e.Field.ID)
}

func (e Editor) first() string {
	if len(e.Values) > 0 {
		return e.Values[0]
	}
	return ""
}

func inputType(t domain.FieldType) string {
	switch t {
	case domain.FieldTypePhone:
		return "tel"
	case domain.FieldTypeNumber:
		return "number"
	case domain.FieldTypeDate:
		return "date"
	}
	return "text"
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
