package session

import (
	"net/http"
	"strings"
)

// SetCookie stores the backend auth token in the AUTH_TOKEN cookie.
// A maxAge of zero or less uses CookieMaxAge.
func SetCookie(w http.ResponseWriter, token string, maxAge int, isSecure bool) {
	if maxAge <= 0 {
		maxAge = CookieMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie tells the browser to drop the auth cookie.
func ClearCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the auth token of a request, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
