// Package middleware contains HTTP middleware for the tradedesk presentation
// service.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/handler"
	"github.com/DukeRupert/tradedesk/internal/session"
)

// AuthMiddleware resolves the AUTH_TOKEN cookie into a session.
//
// The backend owns authentication; this layer only checks that a token is
// present and that user hints were saved for it at sign-in. An expired or
// revoked token surfaces as a 401 from the backend, which the handlers turn
// into a redirect to the login page.
type AuthMiddleware struct {
	store    session.Store
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(store session.Store, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		store:    store,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithSession loads the session from the auth cookie, when there is one,
// and attaches it and the bearer token to the request context. It always
// continues to the next handler.
//
// Flow:
//
//	Request -> WithSession -> Handler
//	           |
//	           +-> Read AUTH_TOKEN
//	           +-> Load user hints from the token's namespace
//	           +-> No hints: clear the cookie, continue anonymously
//	           +-> Otherwise: set session and bearer token in context
func (m *AuthMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ns := session.Namespace(token)
		user, err := session.LoadUser(r.Context(), session.Scope(m.store, ns))
		if err != nil {
			m.logger.Error("failed to load session", "error", err, "namespace", ns)
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			// State expired or was cleared; the token alone is not enough.
			session.ClearCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.SetSession(r.Context(), &auth.Session{Token: token, Namespace: ns, User: user})
		ctx = apiclient.WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects requests without a session. Full page requests are
// redirected to /login with a return_to parameter, htmx requests get an
// HX-Redirect header, API requests a 401.
//
// IMPORTANT: This middleware must be used AFTER WithSession in the chain.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetSessionFromRequest(r) != nil {
			next.ServeHTTP(w, r)
			return
		}

		switch {
		case r.Header.Get("HX-Request") == "true":
			w.Header().Set("HX-Redirect", handler.LoginURL(handler.ReturnTo(r)))
			w.WriteHeader(http.StatusUnauthorized)
		case isAPIRequest(r):
			handler.UnauthorizedResponse(w, r, m.logger)
		default:
			http.Redirect(w, r, handler.LoginURL(handler.ReturnTo(r)), http.StatusSeeOther)
		}
	})
}

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. HX-Request header is NOT present (htmx wants HTML)
// 2. Accept header contains application/json
// 3. Content-Type is application/json
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithSession, authMw.RequireSession)
//	mux.Handle("GET /clients", stack(listHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithSession
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireSession
)
