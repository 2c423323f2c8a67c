package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticChecker bool

func (c staticChecker) Healthy(ctx context.Context) bool { return bool(c) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no dependencies", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]HealthChecker{"redis": staticChecker(true)}, http.StatusOK, "ok"},
		{"redis down", map[string]HealthChecker{"redis": staticChecker(false), "db": staticChecker(true)}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Health(tt.checks)(rec, httptest.NewRequest("GET", "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Error("health must not be cached")
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
			for name, c := range tt.checks {
				want := "ok"
				if !c.Healthy(context.Background()) {
					want = "unavailable"
				}
				if body.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, body.Checks[name], want)
				}
			}
		})
	}
}
