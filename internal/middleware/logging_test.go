package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

// serveLogged runs req through the logging middleware and returns the log
// output and the recorder.
func serveLogged(req *http.Request, status int) (string, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return buf.String(), rec
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("HX-Request", "true")

	logOutput, _ := serveLogged(req, http.StatusOK)

	for _, want := range []string{"GET", "/clients", "status=200", "duration_ms", "ip=192.168.1.1", "htmx=true", "request_id="} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_LogsClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients/table", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")

	logOutput, _ := serveLogged(req, http.StatusOK)

	if !strings.Contains(logOutput, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_LogsErrorStatus(t *testing.T) {
	req := httptest.NewRequest("POST", "/clients/export", nil)
	logOutput, _ := serveLogged(req, http.StatusInternalServerError)

	if !strings.Contains(logOutput, "500") {
		t.Errorf("log should contain 500 status, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "level=WARN") {
		t.Errorf("5xx should log at WARN level, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients/table?page=2&q=Acme+Phone&filters=%7B%22source%22%3A%5B%223%22%5D%7D&token=secret123", nil)
	logOutput, _ := serveLogged(req, http.StatusOK)

	for _, leaked := range []string{"Acme", "secret123", "source"} {
		if strings.Contains(logOutput, leaked) {
			t.Errorf("log should NOT contain %q, got: %s", leaked, logOutput)
		}
	}
	if !strings.Contains(logOutput, "page=2") {
		t.Errorf("harmless params should be kept, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = apiclient.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest("GET", "/clients", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Errorf("request id in context = %q, want %q", seen, "abc-123")
	}
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response request id = %q, want %q", got, "abc-123")
	}

	req = httptest.NewRequest("GET", "/clients", nil)
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("a request id should be generated when none is sent")
	}
	if seen != rec.Header().Get(RequestIDHeader) {
		t.Errorf("generated id %q should reach the handler, got %q", rec.Header().Get(RequestIDHeader), seen)
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	handlerCalled := false
	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/clients/table", nil))

	if !handlerCalled {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("handler headers should be preserved")
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/static/app.js"} {
		logOutput, _ := serveLogged(httptest.NewRequest("GET", path, nil), http.StatusOK)
		if logOutput != "" {
			t.Errorf("%s should not be logged, got: %s", path, logOutput)
		}
	}
}
