package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/session"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that only shows errors in tests.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newSignedInStore returns a store holding user hints for token.
func newSignedInStore(t *testing.T, token string) session.Store {
	t.Helper()
	store := session.NewMemoryStore(0)
	err := session.SaveUser(context.Background(), session.Scope(store, session.Namespace(token)), domain.SessionUser{
		UserID:      "7",
		Role:        "MANAGER",
		FullName:    "Olena K",
		Authorities: []string{"client:export"},
	})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return store
}

// =============================================================================
// WithSession Tests
// =============================================================================

func TestWithSession_NoCookie_ContinuesWithoutSession(t *testing.T) {
	mw := NewAuthMiddleware(session.NewMemoryStore(0), newTestLogger(), false)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if s := auth.GetSession(r.Context()); s != nil {
			t.Errorf("expected nil session, got %+v", s)
		}
	})

	rec := httptest.NewRecorder()
	mw.WithSession(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/clients", nil))

	if !handlerCalled {
		t.Error("handler was not called")
	}
}

func TestWithSession_ValidCookie_SetsSessionAndToken(t *testing.T) {
	mw := NewAuthMiddleware(newSignedInStore(t, "valid-token-123"), newTestLogger(), false)

	var captured *auth.Session
	var bearer string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = auth.GetSession(r.Context())
		bearer = apiclient.TokenFrom(r.Context())
	})

	req := httptest.NewRequest("GET", "/clients", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "valid-token-123"})
	mw.WithSession(handler).ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("session not set in context")
	}
	if captured.Token != "valid-token-123" {
		t.Errorf("session.Token = %q", captured.Token)
	}
	if captured.Namespace != session.Namespace("valid-token-123") {
		t.Errorf("session.Namespace = %q", captured.Namespace)
	}
	if captured.User == nil || captured.User.FullName != "Olena K" {
		t.Errorf("session.User = %+v", captured.User)
	}
	if bearer != "valid-token-123" {
		t.Errorf("bearer token = %q, want the cookie value", bearer)
	}
}

func TestWithSession_UnknownToken_ClearsCookie(t *testing.T) {
	mw := NewAuthMiddleware(session.NewMemoryStore(0), newTestLogger(), true)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if s := auth.GetSession(r.Context()); s != nil {
			t.Errorf("expected nil session, got %+v", s)
		}
	})

	req := httptest.NewRequest("GET", "/clients", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale-token"})
	rec := httptest.NewRecorder()
	mw.WithSession(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, session.CookieName+"=") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Errorf("auth cookie should be cleared, got %q", setCookie)
	}
}

// =============================================================================
// RequireSession Tests
// =============================================================================

func TestRequireSession(t *testing.T) {
	mw := NewAuthMiddleware(session.NewMemoryStore(0), newTestLogger(), false)
	protected := mw.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("with session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/clients", nil)
		req = req.WithContext(auth.SetSession(req.Context(), &auth.Session{Token: "t"}))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("page request redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest("GET", "/clients?page=2", nil))
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login?return_to=%2Fclients%3Fpage%3D2" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("htmx request uses HX-Redirect to the current page", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/clients/table?page=3", nil)
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Current-URL", "http://example.com/purchases?page=1")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if got := rec.Header().Get("HX-Redirect"); got != "/login?return_to=%2Fpurchases%3Fpage%3D1" {
			t.Errorf("HX-Redirect = %q", got)
		}
	})

	t.Run("api request gets 401 json", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/clients", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Errorf("Content-Type = %q", ct)
		}
	})
}

// =============================================================================
// Stack Tests
// =============================================================================

func TestStack_AppliesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(mk("a"), mk("b"), mk("c"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c,handler" {
		t.Errorf("order = %s", got)
	}
}
