package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// Metrics Auth Middleware Tests
// =============================================================================

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string // configured
		auth       func(r *http.Request)
		wantStatus int
	}{
		{"valid credentials", "admin", "secret123", func(r *http.Request) { r.SetBasicAuth("admin", "secret123") }, http.StatusOK},
		{"no credentials", "admin", "secret123", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong username", "admin", "secret123", func(r *http.Request) { r.SetBasicAuth("root", "secret123") }, http.StatusUnauthorized},
		{"wrong password", "admin", "secret123", func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, http.StatusUnauthorized},
		{"malformed header", "admin", "secret123", func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") }, http.StatusUnauthorized},
		{"bearer instead of basic", "admin", "secret123", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret123") }, http.StatusUnauthorized},
		{"disabled without config", "", "", func(r *http.Request) {}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewMetricsAuthMiddleware(tt.user, tt.pass, slog.New(slog.NewTextHandler(io.Discard, nil)))
			wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("metrics data"))
			}))

			req := httptest.NewRequest("GET", "/metrics", nil)
			tt.auth(req)
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="metrics"` {
					t.Errorf("WWW-Authenticate = %q", got)
				}
				if rec.Body.String() == "metrics data" {
					t.Error("metrics must not be served without credentials")
				}
			}
		})
	}
}

func TestMetricsAuthMiddleware_Enabled(t *testing.T) {
	if NewMetricsAuthMiddleware("", "", nil).Enabled() {
		t.Error("should be disabled without credentials")
	}
	if !NewMetricsAuthMiddleware("u", "", nil).Enabled() {
		t.Error("a username alone enables authentication")
	}
}
