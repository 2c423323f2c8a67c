package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/modal"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/table"
	"github.com/DukeRupert/tradedesk/internal/templ/pages/records"
	"github.com/DukeRupert/tradedesk/internal/templ/shared"
)

// =============================================================================
// GET /{kind}/records/{id} - Details Dialog
// =============================================================================

// Details renders the details dialog of one record into the modal root.
// Opening it abandons any field edit left open in an earlier dialog.
func (h *PageHandler) Details(w http.ResponseWriter, r *http.Request) {
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	rec, err := h.backend.Get(ctx, kind, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sc, err := h.currentSchema(ctx, s, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.guards.EndPrefix(s.Namespace, "")

	var (
		et     *domain.EntityType
		fields []domain.FieldDefinition
	)
	if sc != nil {
		et, fields = &sc.Type, sc.Fields
	}
	cols := table.Columns(kind, et, fields, h.messages)
	built := table.Build(kind, cols, []domain.Record{*rec}, h.backend.Entities(ctx), table.SortState{}, h.messages)

	canEdit := s.Can(kind.Authority + ":update")
	data := records.DetailsData{
		Title:      detailsTitle(kind, rec),
		CloseLabel: h.messages.T("ui.close"),
		Timings:    h.timings,
	}
	for i, c := range cols {
		cell := built.Rows[0].Cells[i]
		row := modal.FieldRow{Label: c.Label}
		if !cell.Placeholder {
			row.Lines = cell.Lines
		}
		if c.Static() {
			data.Static = append(data.Static, row)
			continue
		}
		row.FieldID = c.Field.ID
		if canEdit {
			row.EditURL = fieldURL(kind, id, c.Field.ID) + "/edit"
		}
		data.Fields = append(data.Fields, row)
	}
	if s.Can(kind.Authority + ":delete") {
		data.DeleteURL = recordURL(kind, id)
		data.DeleteLabel = h.messages.T("ui.delete")
		data.ConfirmText = h.messages.T("ui.confirmDelete")
	}

	h.render(w, r, http.StatusOK, records.DetailsModal(data))
}

func detailsTitle(kind domain.EntityKind, rec *domain.Record) string {
	if name := strings.TrimSpace(rec.PrimaryName()); name != "" {
		return name
	}
	return kind.Title + " #" + strconv.FormatInt(rec.ID, 10)
}

// =============================================================================
// Field Editing
// =============================================================================

// EditField swaps a field row for its editor. Only one field of a session
// can be edited at a time.
func (h *PageHandler) EditField(w http.ResponseWriter, r *http.Request) {
	const op = "PageHandler.EditField"
	kind, s, rec, def, ok := h.field(w, r, op)
	if !ok {
		return
	}

	target := editTarget(kind, rec.ID, def.ID)
	if !h.guards.Begin(s.Namespace, target) {
		h.fail(w, r, domain.Conflict(op, h.messages.T(apiclient.MsgEditing)))
		return
	}

	values := make([]string, 0)
	for _, v := range rec.ValuesFor(def.ID) {
		if in := def.Kind().InputValue(v); in != "" {
			values = append(values, in)
		}
	}
	h.render(w, r, http.StatusOK, modal.FieldInput(h.editor(kind, rec.ID, def, values, "")))
}

// SaveField validates the editor input and patches the record with the
// field's new values. Invalid input and backend rejections re-render the
// editor with the message; success shows the new value and reloads the list.
//
// Form Fields:
// - value: one entry per value; multi-valued text fields send one value per line
func (h *PageHandler) SaveField(w http.ResponseWriter, r *http.Request) {
	const op = "PageHandler.SaveField"
	kind, s, rec, def, ok := h.field(w, r, op)
	if !ok {
		return
	}
	target := editTarget(kind, rec.ID, def.ID)
	if !h.guards.Begin(s.Namespace, target) {
		h.fail(w, r, domain.Conflict(op, h.messages.T(apiclient.MsgEditing)))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Invalid(op, "invalid form"))
		return
	}

	raw := submittedValues(def, r.PostForm["value"])

	check := raw
	if len(check) == 0 {
		check = []string{""}
	}
	for _, v := range check {
		if err := def.Kind().Validate(def, v); err != nil {
			h.render(w, r, http.StatusOK, modal.FieldInput(h.editor(kind, rec.ID, def, raw, h.messages.UserMessage(err))))
			return
		}
	}

	parsed := make([]domain.FieldValue, 0, len(raw))
	for _, v := range raw {
		fv, err := def.Kind().ParseInput(def, v)
		if err != nil {
			h.render(w, r, http.StatusOK, modal.FieldInput(h.editor(kind, rec.ID, def, raw, h.messages.UserMessage(err))))
			return
		}
		parsed = append(parsed, fv)
	}

	merged := make([]domain.FieldValue, 0, len(rec.FieldValues)+len(parsed))
	for _, v := range rec.FieldValues {
		if v.FieldID != def.ID {
			merged = append(merged, v)
		}
	}
	merged = append(merged, parsed...)

	if err := h.backend.PatchFieldValues(r.Context(), kind, rec.ID, merged); err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			h.fail(w, r, err)
			return
		}
		h.logger.Info("field update rejected", "kind", kind.Slug, "id", rec.ID, "field", def.Name, "error", err)
		h.render(w, r, http.StatusOK, modal.FieldInput(h.editor(kind, rec.ID, def, raw, h.messages.UserMessage(err))))
		return
	}

	h.guards.End(s.Namespace, target)

	updated := *rec
	updated.FieldValues = merged
	h.logger.Info("field updated", "kind", kind.Slug, "id", rec.ID, "field", def.Name)

	setTrigger(w, records.ChangedEvent)
	h.render(w, r, http.StatusOK,
		modal.FieldDisplay(h.fieldRow(kind, s, rec.ID, def, table.FieldLines(def, updated, h.messages))),
		shared.Toast(shared.Flash{Type: shared.FlashSuccess, Message: h.messages.T(apiclient.MsgSaved)}, true),
	)
}

// CancelField drops the editor and shows the stored value again.
func (h *PageHandler) CancelField(w http.ResponseWriter, r *http.Request) {
	kind, s, rec, def, ok := h.field(w, r, "PageHandler.CancelField")
	if !ok {
		return
	}
	h.guards.End(s.Namespace, editTarget(kind, rec.ID, def.ID))
	h.render(w, r, http.StatusOK, modal.FieldDisplay(h.fieldRow(kind, s, rec.ID, def, table.FieldLines(def, *rec, h.messages))))
}

// field resolves the record and the field definition of a field route and
// checks that the user may edit it.
func (h *PageHandler) field(w http.ResponseWriter, r *http.Request, op string) (domain.EntityKind, *auth.Session, *domain.Record, domain.FieldDefinition, bool) {
	var def domain.FieldDefinition
	kind, s, ok := h.begin(w, r)
	if !ok {
		return kind, nil, nil, def, false
	}
	if !s.Can(kind.Authority + ":update") {
		h.fail(w, r, domain.Forbidden(op, h.messages.T(apiclient.CodeAccessDenied)))
		return kind, nil, nil, def, false
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return kind, nil, nil, def, false
	}
	fieldID, ok := h.pathID(w, r, "field")
	if !ok {
		return kind, nil, nil, def, false
	}

	ctx := r.Context()
	sc, err := h.currentSchema(ctx, s, kind)
	if err != nil {
		h.fail(w, r, err)
		return kind, nil, nil, def, false
	}
	def, ok = schemaField(sc, fieldID)
	if !ok {
		h.fail(w, r, domain.NotFound(op, "field", strconv.FormatInt(fieldID, 10)))
		return kind, nil, nil, def, false
	}
	rec, err := h.backend.Get(ctx, kind, id)
	if err != nil {
		h.fail(w, r, err)
		return kind, nil, nil, def, false
	}
	return kind, s, rec, def, true
}

func (h *PageHandler) editor(kind domain.EntityKind, id int64, def domain.FieldDefinition, values []string, errMsg string) modal.Editor {
	base := fieldURL(kind, id, def.ID)
	return modal.Editor{
		Field:     def,
		Values:    values,
		SaveURL:   base,
		CancelURL: base + "/cancel",
		YesLabel:  h.messages.T(apiclient.MsgYes),
		NoLabel:   h.messages.T(apiclient.MsgNo),
		SaveLabel: h.messages.T("ui.save"),
		Cancel:    h.messages.T("ui.cancel"),
		Error:     errMsg,
	}
}

func (h *PageHandler) fieldRow(kind domain.EntityKind, s *auth.Session, id int64, def domain.FieldDefinition, lines []string) modal.FieldRow {
	row := modal.FieldRow{FieldID: def.ID, Label: def.Label, Lines: lines}
	if row.Label == "" {
		row.Label = def.Name
	}
	if s.Can(kind.Authority + ":update") {
		row.EditURL = fieldURL(kind, id, def.ID) + "/edit"
	}
	return row
}

// submittedValues splits the editor input into one raw value per entry.
// Multi-valued text fields arrive as one textarea with a value per line.
func submittedValues(def domain.FieldDefinition, form []string) []string {
	textarea := def.AllowMultiple && def.Kind().Type() != domain.FieldTypeList && def.Kind().Type() != domain.FieldTypeBoolean

	var out []string
	for _, v := range form {
		parts := []string{v}
		if textarea {
			parts = strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n")
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	if !def.AllowMultiple && len(out) > 1 {
		out = out[:1]
	}
	return out
}

func editTarget(kind domain.EntityKind, id, fieldID int64) string {
	return kind.Slug + "/" + strconv.FormatInt(id, 10) + "/" + strconv.FormatInt(fieldID, 10)
}

func schemaField(sc *schema.Schema, id int64) (domain.FieldDefinition, bool) {
	if sc == nil {
		return domain.FieldDefinition{}, false
	}
	return sc.Field(id)
}

// =============================================================================
// DELETE /{kind}/records/{id} - Delete Record
// =============================================================================

// Delete removes a record, closes the dialog and reloads the list.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "PageHandler.Delete"
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}
	if !s.Can(kind.Authority + ":delete") {
		h.fail(w, r, domain.Forbidden(op, h.messages.T(apiclient.CodeAccessDenied)))
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.backend.Delete(r.Context(), kind, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.guards.EndPrefix(s.Namespace, kind.Slug+"/"+strconv.FormatInt(id, 10)+"/")
	h.logger.Info("record deleted", "kind", kind.Slug, "id", id)

	setTrigger(w, modal.CloseEvent, records.ChangedEvent)
	h.render(w, r, http.StatusOK,
		shared.Toast(shared.Flash{Type: shared.FlashSuccess, Message: h.messages.T(apiclient.MsgDeleted)}, true),
	)
}

// pathID parses a numeric path value.
func (h *PageHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, domain.Invalid("PageHandler.pathID", "invalid "+name+" "+strconv.Quote(raw)))
		return 0, false
	}
	return id, true
}

// setTrigger fires client events through HX-Trigger.
func setTrigger(w http.ResponseWriter, events ...string) {
	m := make(map[string]bool, len(events))
	for _, e := range events {
		m[e] = true
	}
	b, _ := json.Marshal(m)
	w.Header().Set("HX-Trigger", string(b))
}
