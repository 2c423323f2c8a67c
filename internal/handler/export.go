package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/controller"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/metrics"
	"github.com/DukeRupert/tradedesk/internal/table"
)

// =============================================================================
// POST /{kind}/export - Spreadsheet Export
// =============================================================================

// Export downloads a spreadsheet of every record matching the current list:
// the session's filters and search term, in the submitted sort order, with
// the columns the table shows. When archiving is configured a copy is kept.
//
// Form Fields:
// - sort, direction: order of the rows
// - type: entity type id (kinds with entity types)
func (h *PageHandler) Export(w http.ResponseWriter, r *http.Request) {
	const op = "PageHandler.Export"
	kind, s, ok := h.begin(w, r)
	if !ok {
		return
	}
	if !s.Can(kind.Authority + ":export") {
		h.fail(w, r, domain.Forbidden(op, h.messages.T(apiclient.CodeAccessDenied)))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Invalid(op, "invalid form"))
		return
	}

	ctx := r.Context()
	var typeID int64
	if kind.UsesTypes {
		var err error
		if typeID, err = h.lists.EntityType(ctx, s.Namespace, r.PostForm.Get(typeParam)); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	sc, err := h.lists.Schema(ctx, s.Namespace, typeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	term, err := h.lists.SearchTerm(ctx, s.Namespace, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	st := controller.ParseState(kind, r.PostForm, h.pageSize).WithQuery(term)
	params, err := h.lists.Params(ctx, s.Namespace, kind, st, sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var et *domain.EntityType
	var visible []domain.FieldDefinition
	if sc != nil {
		et, visible = &sc.Type, sc.Visible
	}
	cols := table.Columns(kind, et, visible, h.messages)
	fields := make([]string, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, c.Key)
	}

	export, err := h.backend.Export(ctx, kind, params, fields)
	metrics.ExportCompleted(kind.Slug, err == nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.archiver != nil && h.archiver.Enabled() {
		key, err := h.archiver.Save(ctx, kind.Slug, export.Filename, export.ContentType, export.Body)
		if err != nil {
			h.logger.Warn("failed to archive export", "kind", kind.Slug, "filename", export.Filename, "error", err)
		} else {
			h.logger.Info("export archived", "kind", kind.Slug, "key", key)
		}
	}

	h.logger.Info("export generated",
		"kind", kind.Slug,
		"filename", export.Filename,
		"bytes", len(export.Body),
		"filters", params.Filters.Count(),
	)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

// ContentDisposition is an attachment header carrying name both as an ASCII
// fallback and RFC 5987 encoded.
func ContentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + encoded
}
