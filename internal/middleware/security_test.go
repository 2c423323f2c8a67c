package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Security Headers Middleware Tests
// =============================================================================

func serveSecured(isSecure bool, req *http.Request) *httptest.ResponseRecorder {
	mw := NewSecurityHeadersMiddleware(isSecure)
	rec := httptest.NewRecorder()
	mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := serveSecured(true, httptest.NewRequest("GET", "/clients", nil))

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	}
	for _, tc := range tests {
		if got := rec.Header().Get(tc.header); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}

	if pp := rec.Header().Get("Permissions-Policy"); !strings.Contains(pp, "camera=()") {
		t.Errorf("Permissions-Policy should disable the camera: %s", pp)
	}
}

func TestSecurityHeadersMiddleware_NoHSTSInDevelopment(t *testing.T) {
	rec := serveSecured(false, httptest.NewRequest("GET", "/", nil))
	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS should not be set in development, got %q", hsts)
	}
}

func TestSecurityHeadersMiddleware_CSP(t *testing.T) {
	csp := serveSecured(true, httptest.NewRequest("GET", "/", nil)).Header().Get("Content-Security-Policy")

	for _, want := range []string{
		"default-src 'self'",
		"https://unpkg.com",
		"'unsafe-eval'",
		"style-src 'self' 'unsafe-inline'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP should contain %q: %s", want, csp)
		}
	}
}

func TestSecurityHeadersMiddleware_HTMXResponsesNotCached(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients/table", nil)
	req.Header.Set("HX-Request", "true")
	rec := serveSecured(true, req)

	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if v := rec.Header().Get("Vary"); v != "HX-Request" {
		t.Errorf("Vary = %q, want HX-Request", v)
	}

	rec = serveSecured(true, httptest.NewRequest("GET", "/clients", nil))
	if cc := rec.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("full pages should not get Cache-Control, got %q", cc)
	}
}
