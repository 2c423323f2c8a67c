// Package csrf provides CSRF protection using the double-submit cookie pattern.
//
// A random token lives in a cookie and is echoed back by every state-changing
// request, either as the csrf_token form field (plain forms) or in the
// X-CSRF-Token header (htmx requests, set once on <body hx-headers>). A
// cross-origin page can make the browser send the cookie but cannot read it,
// so it cannot echo the token.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the name of the CSRF token form field.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (32 bytes = 256 bits).
	TokenLength = 32

	// CookieMaxAge matches the auth cookie so a long-lived page keeps a valid
	// token in its hx-headers.
	CookieMaxAge = 12 * 60 * 60
)

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// MustGenerateToken generates a token or panics.
func MustGenerateToken() string {
	token, err := GenerateToken()
	if err != nil {
		panic("csrf: failed to generate token: " + err.Error())
	}
	return token
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the request's token against its cookie. The header
// is preferred; the form field is read only when the header is absent.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}

	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.FormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// SetCookie sets the CSRF token cookie on the response. It is not HttpOnly
// because nothing secret is in it; SameSite=Strict keeps it off cross-site
// requests entirely.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetTokenFromRequest returns the cookie token, or "".
func GetTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's token, issuing a new cookie when there
// is none.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) string {
	if existing := GetTokenFromRequest(r); existing != "" {
		return existing
	}

	token, err := GenerateToken()
	if err != nil {
		token = MustGenerateToken()
	}
	SetCookie(w, token, isSecure)
	return token
}

type contextKey struct{}

// WithToken stores the request's token for templates.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// Token returns the token stored by WithToken, or "".
func Token(ctx context.Context) string {
	t, _ := ctx.Value(contextKey{}).(string)
	return t
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// Protect ensures every request carries a token in its context and rejects
// unsafe requests whose token does not match. Rejections are passed to
// onFailure.
func Protect(isSecure bool, onFailure http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !safeMethod(r.Method) && !ValidateRequest(r) {
				onFailure.ServeHTTP(w, r)
				return
			}
			token := EnsureToken(w, r, isSecure)
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}
