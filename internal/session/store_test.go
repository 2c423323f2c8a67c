package session

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DukeRupert/tradedesk/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the Store contract against an implementation.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	ns := Namespace("token-" + t.Name())
	other := Namespace("other-" + t.Name())
	t.Cleanup(func() {
		_ = s.Clear(ctx, ns)
		_ = s.Clear(ctx, other)
	})

	_, ok, err := s.Get(ctx, ns, KeySearchTerm)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, ns, KeySearchTerm, "acme"))
	require.NoError(t, s.Set(ctx, ns, KeyClientTypeID, "42"))
	require.NoError(t, s.Set(ctx, ns, KeySelectedFilters, `{"source":["3"]}`))
	require.NoError(t, s.Set(ctx, other, KeySearchTerm, "other"))

	v, ok, err := s.Get(ctx, ns, KeySearchTerm)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "acme", v)

	v, _, err = s.Get(ctx, ns, KeyClientTypeID)
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	v, _, err = s.Get(ctx, ns, KeySelectedFilters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":["3"]}`, v)

	require.NoError(t, s.Delete(ctx, ns, KeySearchTerm, "missing"))
	_, ok, _ = s.Get(ctx, ns, KeySearchTerm)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx, ns))
	_, ok, _ = s.Get(ctx, ns, KeyClientTypeID)
	assert.False(t, ok)

	v, ok, _ = s.Get(ctx, other, KeySearchTerm)
	assert.True(t, ok, "clear must not touch other namespaces")
	assert.Equal(t, "other", v)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "ns", "k", "v"))
	now = now.Add(30 * time.Second)
	_, ok, _ := s.Get(ctx, "ns", "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = s.Get(ctx, "ns", "k")
	assert.False(t, ok)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, s.data)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	testStore(t, NewRedisStore(client, time.Minute))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS ui_state (
		namespace TEXT NOT NULL, key TEXT NOT NULL, value JSONB,
		expires_at TIMESTAMPTZ, updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key))`)
	require.NoError(t, err)

	testStore(t, NewPostgresStore(db, time.Minute))
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"source":["3"]}`, `{"source":["3"]}`},
		{`["a","b"]`, `["a","b"]`},
		{`42`, `"42"`},
		{`[broken`, `"[broken"`},
		{`acme`, `"acme"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			enc := encodeValue(tt.in)
			assert.True(t, enc.Valid)
			assert.Equal(t, tt.want, string(enc.RawMessage))
			got, ok := decodeValue(enc)
			assert.True(t, ok)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "", Namespace(" "))
	assert.Len(t, Namespace("abc"), 32)
	assert.Equal(t, Namespace("abc"), Namespace("abc"))
	assert.NotEqual(t, Namespace("abc"), Namespace("abd"))
	assert.NotContains(t, Namespace("secret-token"), "secret")
}

func TestUserHints(t *testing.T) {
	ctx := context.Background()
	s := Scope(NewMemoryStore(0), "ns")

	u, err := LoadUser(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, SaveUser(ctx, s, domain.SessionUser{
		UserID:      "7",
		Role:        "MANAGER",
		FullName:    "Olena K.",
		Authorities: []string{"client:view", "client:export"},
	}))

	raw, _, _ := s.Get(ctx, KeyAuthorities)
	assert.Equal(t, `["client:view","client:export"]`, raw)

	u, err = LoadUser(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "MANAGER", u.Role)
	assert.Equal(t, "Olena K.", u.FullName)
	assert.True(t, u.Can("client:export"))

	// hints written by older clients as a comma list still load
	require.NoError(t, s.Set(ctx, KeyAuthorities, "finance:view,finance:export"))
	u, _ = LoadUser(ctx, s)
	assert.Equal(t, []string{"finance:view", "finance:export"}, u.Authorities)
}

func TestCookies(t *testing.T) {
	w := httptest.NewRecorder()
	SetCookie(w, "tok", 0, true)
	c := w.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, CookieName, c[0].Name)
	assert.Equal(t, CookieMaxAge, c[0].MaxAge)
	assert.True(t, c[0].HttpOnly)
	assert.True(t, c[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, c[0].SameSite)

	w = httptest.NewRecorder()
	ClearCookie(w, false)
	c = w.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, -1, c[0].MaxAge)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	assert.Equal(t, "tok", TokenFromRequest(r))
}

func TestPostgresValueEncoding(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		stored  string
		decoded string
	}{
		{"object", `{"page":2,"size":50}`, `{"page":2,"size":50}`, `{"page":2,"size":50}`},
		{"object with padding", " {\"a\":1}\n", `{"a":1}`, `{"a":1}`},
		{"array", `[3,4]`, `[3,4]`, `[3,4]`},
		{"plain string", "updatedAt", `"updatedAt"`, "updatedAt"},
		{"empty", "", `""`, ""},
		{"null text", "null", `"null"`, "null"},
		{"number text", "42", `"42"`, "42"},
		{"invalid document", `{"a":`, `"{\"a\":"`, `{"a":`},
		{"quoted string", `"x"`, `"\"x\""`, `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := encodeValue(tt.value)
			require.True(t, raw.Valid)
			assert.Equal(t, tt.stored, string(raw.RawMessage))

			got, ok := decodeValue(raw)
			assert.True(t, ok)
			assert.Equal(t, tt.decoded, got)
		})
	}
}

func TestPostgresValueDecoding_Missing(t *testing.T) {
	_, ok := decodeValue(pqtype.NullRawMessage{})
	assert.False(t, ok)

	_, ok = decodeValue(pqtype.NullRawMessage{Valid: true})
	assert.False(t, ok)
}
