package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/session"
)

func postExport(f *pageFixture, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func TestExport_DownloadsMatchingRecords(t *testing.T) {
	f := newPageFixture(t, "client:export")
	f.api.export = &apiclient.Export{
		Filename:    "clients.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        []byte("PK\x03\x04sheet"),
	}
	ns := session.Scope(f.store, f.sess.Namespace)
	ctx := context.Background()
	_ = ns.Set(ctx, session.KeySearchTerm, "acme")
	_ = ns.Set(ctx, session.KeySelectedFilters, `{"weightFrom":["10"]}`)

	rec := postExport(f, "/clients/export", url.Values{
		"type":      {"5"},
		"sort":      {"company"},
		"direction": {"desc"},
		"page":      {"3"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="clients.xlsx"; filename*=UTF-8''clients.xlsx` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Header().Get("Content-Length") != "9" || rec.Body.String() != "PK\x03\x04sheet" {
		t.Errorf("body = %q", rec.Body.String())
	}

	p := f.api.exportParams
	if p.Q != "acme" || p.Page != 0 || p.Sort != domain.ColumnName || p.Direction != domain.DESC || p.ClientTypeID != 5 {
		t.Errorf("params = %+v", p)
	}
	if got := p.Filters["weightFrom"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("filters = %v", p.Filters)
	}

	for _, want := range []string{"company", "source", "phone", "weight", "updatedAt"} {
		if !slices.Contains(f.api.exportFields, want) {
			t.Errorf("fields %v missing %s", f.api.exportFields, want)
		}
	}
	if slices.Contains(f.api.exportFields, "status") {
		t.Error("columns hidden from the table must not be exported")
	}

	if len(f.archive.saved) != 1 || f.archive.saved[0] != "clients/clients.xlsx" {
		t.Errorf("archived = %v", f.archive.saved)
	}
}

func TestExport_RequiresAuthority(t *testing.T) {
	f := newPageFixture(t, "client:update")

	rec := postExport(f, "/clients/export", url.Values{})

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if f.api.exportFields != nil {
		t.Error("backend export called without authority")
	}
}

func TestExport_BackendFailure(t *testing.T) {
	f := newPageFixture(t, "warehouse:export")
	f.api.exportErr = &apiclient.APIError{Status: http.StatusBadGateway, Code: "INTERNAL_ERROR"}

	rec := postExport(f, "/stock/export", url.Values{})

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("failed export must not look like a download")
	}
	if len(f.archive.saved) != 0 {
		t.Error("nothing should be archived")
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "stock.xlsx", `attachment; filename="stock.xlsx"; filename*=UTF-8''stock.xlsx`},
		{"spaces", "stock 2025.xlsx", `attachment; filename="stock 2025.xlsx"; filename*=UTF-8''stock%202025.xlsx`},
		{"cyrillic", "Клієнти.xlsx", `attachment; filename="_______.xlsx"; filename*=UTF-8''%D0%9A%D0%BB%D1%96%D1%94%D0%BD%D1%82%D0%B8.xlsx`},
		{"quotes", `a"b\c.xlsx`, `attachment; filename="a_b_c.xlsx"; filename*=UTF-8''a%22b%5Cc.xlsx`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentDisposition(tt.in); got != tt.want {
				t.Errorf("ContentDisposition(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
