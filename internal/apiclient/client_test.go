package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func clients(t *testing.T) domain.EntityKind {
	t.Helper()
	k, ok := domain.KindBySlug("clients")
	require.True(t, ok)
	return k
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "  "}, nil)
	assert.Error(t, err)
}

func TestSearch_QueryParameters(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"id":1,"company":"Acme"}],"totalElements":1,"totalPages":1}`))
	})

	ctx := WithToken(context.Background(), "tok")
	page, err := c.Search(ctx, clients(t), SearchParams{
		Page:      0,
		Size:      50,
		Sort:      "updatedAt",
		Direction: domain.DESC,
		Filters:   domain.Filters{"source": {"3"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/client/search", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.True(t, strings.HasPrefix(gotQuery, "page=0&size=50&sort=updatedAt&direction=DESC&filters="), gotQuery)

	parts := strings.SplitN(gotQuery, "&filters=", 2)
	require.Len(t, parts, 2)
	raw, err := url.QueryUnescape(parts[1])
	require.NoError(t, err)

	var filters map[string][]string
	require.NoError(t, json.Unmarshal([]byte(raw), &filters))
	assert.Equal(t, map[string][]string{"source": {"3"}}, filters)

	require.Len(t, page.Content, 1)
	assert.Equal(t, "Acme", page.Content[0].PrimaryName())
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestSearch_OmitsEmptyOptionalParameters(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"totalElements":0,"totalPages":0}`))
	})

	page, err := c.Search(context.Background(), clients(t), SearchParams{
		Size:      50,
		Sort:      "updatedAt",
		Direction: domain.DESC,
		Q:         "   ",
		Filters:   domain.Filters{"source": {"", "null"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "page=0&size=50&sort=updatedAt&direction=DESC", gotQuery)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
}

func TestSearch_ContainersUseDedicatedPath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"content":[]}`))
	})

	kind, _ := domain.KindBySlug("containers")
	_, err := c.Search(context.Background(), kind, SearchParams{Size: 10, Q: "barrel", ClientTypeID: 0})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/container/search-containers", gotPath)
}

func TestSearch_StructuredError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"ACCESS_DENIED","message":"no rights"}`))
	})

	_, err := c.Search(context.Background(), clients(t), SearchParams{Size: 50})
	require.Error(t, err)

	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, "ACCESS_DENIED", ae.Code)
	assert.Equal(t, "no rights", ae.Message)

	assert.Equal(t, "no rights", NewMessages("uk").UserMessage(err))
}

func TestSearch_UnparseableErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.Search(context.Background(), clients(t), SearchParams{Size: 50})
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "HTTP_502", ae.Code)
	assert.Equal(t, "upstream exploded", ae.Message)
}

func TestSearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), clients(t), SearchParams{Size: 50})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, "Cannot execute request", NewMessages("en").UserMessage(err))
}

func TestFields_Paths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"segment","fieldType":"LIST","displayOrder":2}]`))
	})

	for _, set := range []FieldSet{AllFields, VisibleFields, FilterableFields, CreateFields} {
		fields, err := c.Fields(context.Background(), 7, set)
		require.NoError(t, err)
		require.Len(t, fields, 1)
		assert.Equal(t, domain.FieldTypeList, fields[0].Type)
	}

	assert.Equal(t, []string{
		"/api/v1/client-type/7/field",
		"/api/v1/client-type/7/field/visible",
		"/api/v1/client-type/7/field/filterable",
		"/api/v1/client-type/7/field/visible-in-create",
	}, paths)
}

func TestEntities_BestEffort(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/entities", r.URL.Path)
			_, _ = w.Write([]byte(`{"users":[{"id":1,"fullName":"Olena"}],"sources":[{"id":3,"name":"Expo"}],"products":[]}`))
		})
		lk := c.Entities(context.Background())
		assert.Equal(t, "Olena", lk.Users[1])
		assert.Equal(t, "Expo", lk.Sources[3])
		assert.NotNil(t, lk.Products)
	})

	t.Run("failure yields empty maps", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		lk := c.Entities(context.Background())
		assert.NotNil(t, lk.Users)
		assert.Empty(t, lk.Users)
	})
}

func TestRecords_CRUD(t *testing.T) {
	var method, path, body string
	respond := ""
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		if respond == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(respond))
	})
	kind := clients(t)
	ctx := context.Background()

	respond = `{"id":5,"company":"Acme"}`
	rec, err := c.Get(ctx, kind, 5)
	require.NoError(t, err)
	assert.Equal(t, "GET /api/v1/client/5", method+" "+path)
	assert.Equal(t, int64(5), rec.ID)

	respond = ""
	created, err := c.Create(ctx, kind, map[string]string{"company": "New"})
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, "POST /api/v1/client", method+" "+path)
	assert.JSONEq(t, `{"company":"New"}`, body)

	text := "x"
	require.NoError(t, c.PatchFieldValues(ctx, kind, 5, []domain.FieldValue{{FieldID: 2, ValueText: &text}}))
	assert.Equal(t, "PATCH /api/v1/client/5", method+" "+path)
	assert.JSONEq(t, `{"fieldValues":[{"fieldId":2,"valueText":"x"}]}`, body)

	require.NoError(t, c.Delete(ctx, kind, 5))
	assert.Equal(t, "DELETE /api/v1/client/5", method+" "+path)
}

func TestExport_DecodesUTF8Filename(t *testing.T) {
	var gotBody, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/client/export/excel", r.URL.Path)
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''%D0%B4%D0%B0%D0%BD%D1%96.xlsx")
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK"))
	})

	exp, err := c.Export(context.Background(), clients(t), SearchParams{Size: 50, Sort: "updatedAt", Direction: domain.DESC}, []string{"company", "phone"})
	require.NoError(t, err)

	assert.Equal(t, "дані.xlsx", exp.Filename)
	assert.Equal(t, []byte("PK"), exp.Body)
	assert.JSONEq(t, `{"fields":["company","phone"]}`, gotBody)
	assert.Equal(t, "page=0&size=50&sort=updatedAt&direction=DESC", gotQuery)
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"utf8 preferred", `attachment; filename="fallback.xlsx"; filename*=UTF-8''%D0%B4%D0%B0%D0%BD%D1%96.xlsx`, "дані.xlsx"},
		{"plain quoted", `attachment; filename="report.xlsx"`, "report.xlsx"},
		{"plain unquoted", `attachment; filename=report.xlsx`, "report.xlsx"},
		{"path stripped", `attachment; filename="../../etc/passwd"`, "passwd"},
		{"missing", ``, "client.xlsx"},
		{"no filename", `attachment`, "client.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromDisposition(tt.header, "client.xlsx"))
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantUserID  string
		authorities []string
	}{
		{"array", `{"token":"t","userId":12,"role":"MANAGER","fullName":"Ivan","authorities":["client:view","client:export"]}`, "12", []string{"client:view", "client:export"}},
		{"comma string", `{"token":"t","userId":"12","authorities":"client:view,client:export"}`, "12", []string{"client:view", "client:export"}},
		{"objects", `{"token":"t","userId":1,"authorities":[{"authority":"finance:view"}]}`, "1", []string{"finance:view"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			res, err := c.Login(context.Background(), "ivan", "secret")
			require.NoError(t, err)
			assert.Equal(t, "t", res.Token)
			assert.Equal(t, tt.wantUserID, res.User.UserID)
			assert.Equal(t, tt.authorities, res.User.Authorities)
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED"}`))
	})
	_, err := c.Login(context.Background(), "ivan", "wrong")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestRequestID_Propagated(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"content":[],"totalElements":0,"totalPages":0}`))
	})

	_, err := c.Search(WithRequestID(context.Background(), "req-1"), clients(t), SearchParams{Size: 10})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), clients(t), SearchParams{Size: 10})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "req-1", got[0])
	assert.NotEmpty(t, got[1])
	assert.NotEqual(t, "req-1", got[1])
}
