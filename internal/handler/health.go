package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is reachable.
// *session.RedisStore implements it.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Health answers GET /health. Every named checker must be healthy for a 200;
// otherwise the response is 503 and names the failing dependencies.
func Health(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{}
		for name, c := range checks {
			if c.Healthy(ctx) {
				result[name] = "ok"
				continue
			}
			result[name] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		body := map[string]any{"status": "ok", "checks": result}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
