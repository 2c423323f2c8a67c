// Package handler contains the HTTP handlers of the presentation service.
//
// This file implements sign-in and sign-out against the backend.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/auth"
	"github.com/DukeRupert/tradedesk/internal/csrf"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/DukeRupert/tradedesk/internal/session"
	authpages "github.com/DukeRupert/tradedesk/internal/templ/pages/auth"
	"github.com/DukeRupert/tradedesk/internal/templ/shared"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// Authenticator signs a user in at the backend. *apiclient.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, login, password string) (*apiclient.LoginResult, error)
}

// Forgetter drops per-session memory. The schema cache, the list controller
// and the edit guard registry implement it.
type Forgetter interface {
	Forget(ns string)
}

// LoginLimiter is reset after a successful sign-in.
type LoginLimiter interface {
	Reset(r *http.Request)
}

// AuthHandler handles sign-in and sign-out.
//
// Routes handled:
// - GET  /login  -> ShowLogin
// - POST /login  -> Login
// - POST /logout -> Logout
type AuthHandler struct {
	auth         Authenticator
	store        session.Store
	forget       []Forgetter
	limiter      LoginLimiter
	messages     *apiclient.Messages
	logger       *slog.Logger
	isSecure     bool
	cookieMaxAge time.Duration
}

// AuthConfig holds the dependencies of an AuthHandler.
type AuthConfig struct {
	Auth         Authenticator
	Store        session.Store
	Forget       []Forgetter
	Limiter      LoginLimiter // optional
	Messages     *apiclient.Messages
	Logger       *slog.Logger
	IsSecure     bool
	CookieMaxAge time.Duration // zero uses session.CookieMaxAge
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	return &AuthHandler{
		auth:         cfg.Auth,
		store:        cfg.Store,
		forget:       cfg.Forget,
		limiter:      cfg.Limiter,
		messages:     cfg.Messages,
		logger:       cfg.Logger,
		isSecure:     cfg.IsSecure,
		cookieMaxAge: cfg.CookieMaxAge,
	}
}

// =============================================================================
// GET /login - Show Login Form
// =============================================================================

// ShowLogin displays the login form. Signed-in users go straight to return_to.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")
	if auth.GetSession(r.Context()) != nil {
		http.Redirect(w, r, safeReturnTo(returnTo), http.StatusSeeOther)
		return
	}

	var flash *shared.Flash
	if r.URL.Query().Get("logout") == "1" {
		flash = &shared.Flash{Type: shared.FlashInfo, Message: h.messages.T(apiclient.MsgSignedOut)}
	}
	h.renderLogin(w, r, http.StatusOK, "", returnTo, "", flash)
}

// =============================================================================
// POST /login - Process Login
// =============================================================================

// Login signs in at the backend, remembers the user hints for the session
// and sets the auth cookie.
//
// Form Fields:
// - login, password (required)
// - return_to (optional): local URL to continue to
//
// Failed attempts re-render the form with a generic message; they are counted
// by the login rate limiter in front of this handler.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "", h.messages.T(apiclient.MsgLoginMissing), nil)
		return
	}

	login := strings.TrimSpace(r.FormValue("login"))
	password := r.FormValue("password")
	returnTo := r.FormValue("return_to")

	if login == "" || password == "" {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, login, returnTo, h.messages.T(apiclient.MsgLoginMissing), nil)
		return
	}

	result, err := h.auth.Login(r.Context(), login, password)
	if err != nil {
		msg := h.messages.T(apiclient.MsgLoginFailed)
		status := http.StatusUnauthorized
		if ae, ok := apiclient.AsAPIError(err); !ok || ae.Status >= 500 {
			// not a credential problem; say what went wrong
			msg = h.messages.UserMessage(err)
			status = http.StatusBadGateway
			h.logger.Error("login failed", "error", err)
		} else {
			h.logger.Info("login rejected", "status", ae.Status, "code", ae.Code)
		}
		h.renderLogin(w, r, status, login, returnTo, msg, nil)
		return
	}

	ns := session.Namespace(result.Token)
	scoped := session.Scope(h.store, ns)
	if err := scoped.Clear(r.Context()); err != nil {
		h.logger.Warn("failed to reset session state", "error", err)
	}
	if err := session.SaveUser(r.Context(), scoped, result.User); err != nil {
		h.logger.Error("failed to save session user", "error", err)
		ShowMessage(w, r, h.logger, h.messages, domain.Internal(err, "AuthHandler.Login", "could not start session"))
		return
	}

	session.SetCookie(w, result.Token, int(h.cookieMaxAge/time.Second), h.isSecure)
	if h.limiter != nil {
		h.limiter.Reset(r)
	}

	h.logger.Info("user logged in", "user_id", result.User.UserID, "role", result.User.Role)

	http.Redirect(w, r, safeReturnTo(returnTo), http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, login, returnTo, errMsg string, flash *shared.Flash) {
	token := csrf.Token(r.Context())
	data := authpages.LoginPageData{
		Layout: shared.LayoutData{
			Title:     h.messages.T("ui.login"),
			Lang:      h.messages.Lang(),
			CSRFToken: token,
			Flash:     flash,
		},
		Login:     login,
		ReturnTo:  returnTo,
		CSRFToken: token,
		Error:     errMsg,
		Labels: authpages.LoginLabels{
			Username: h.messages.T("ui.username"),
			Password: h.messages.T("ui.password"),
			Submit:   h.messages.T("ui.login"),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := authpages.LoginPage(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// =============================================================================
// POST /logout - Process Logout
// =============================================================================

// Logout drops everything remembered for the session and clears the cookie.
// It is idempotent and always ends on the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromRequest(r); token != "" {
		ns := session.Namespace(token)
		if err := h.store.Clear(r.Context(), ns); err != nil {
			h.logger.Warn("failed to clear session state", "error", err)
		}
		for _, f := range h.forget {
			f.Forget(ns)
		}
	}

	session.ClearCookie(w, h.isSecure)
	h.logger.Debug("user logged out")

	redirect(w, r, "/login?logout=1")
}

// =============================================================================
// Redirect Helpers
// =============================================================================

// HomePath is where a sign-in without return_to lands.
func HomePath() string {
	return "/" + domain.Kinds[0].Slug
}

// LoginURL is the login page that continues to returnTo after sign-in.
func LoginURL(returnTo string) string {
	if returnTo == "" || returnTo == "/" || !isSafeRedirectURL(returnTo) {
		return "/login"
	}
	return "/login?return_to=" + url.QueryEscape(returnTo)
}

// ReturnTo is the page a request came from. htmx requests name the page in
// HX-Current-URL; the request path itself is a partial.
func ReturnTo(r *http.Request) string {
	if cur := r.Header.Get("HX-Current-URL"); cur != "" {
		if u, err := url.Parse(cur); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	return r.URL.RequestURI()
}

// redirect sends the browser to target, with HX-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func safeReturnTo(returnTo string) string {
	if returnTo != "" && isSafeRedirectURL(returnTo) && !strings.HasPrefix(returnTo, "/login") {
		return returnTo
	}
	return HomePath()
}

// isSafeRedirectURL validates that a URL is safe for redirecting.
//
// Examples:
// - "/clients"               -> true (relative URL)
// - "/clients?page=2"        -> true (relative URL with query)
// - "//evil.com"             -> false (protocol-relative, could be external)
// - "https://evil.com"       -> false (absolute URL to external domain)
// - "javascript:alert(1)"    -> false (javascript URL)
func isSafeRedirectURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") {
		return false
	}

	if strings.HasPrefix(rawURL, "//") || strings.HasPrefix(rawURL, "/\\") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "" {
		return false
	}

	if parsed.Host != "" {
		return false
	}

	return true
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers the auth routes. The login POST is wrapped by
// limit, e.g. the login rate limiter; pass nil for none.
//
// Routes registered:
// - GET  /login  -> ShowLogin
// - POST /login  -> Login
// - POST /logout -> Logout
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	var login http.Handler = http.HandlerFunc(h.Login)
	if limit != nil {
		login = limit(login)
	}
	mux.HandleFunc("GET /login", h.ShowLogin)
	mux.Handle("POST /login", login)
	mux.HandleFunc("POST /logout", h.Logout)
}
