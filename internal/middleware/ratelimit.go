package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts attempts per key in a fixed window.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine. Call
// Stop when the limiter is no longer used.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
		stop:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// entry returns key's entry, starting a new window when the old one expired.
// Callers hold mu.
func (rl *RateLimiter) entry(key string) *rateLimitEntry {
	now := rl.now()
	e, ok := rl.entries[key]
	if !ok || now.Sub(e.windowStart) > rl.window {
		e = &rateLimitEntry{windowStart: now}
		rl.entries[key] = e
	}
	return e
}

// Allow counts one attempt and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e := rl.entry(key)
	if e.count >= rl.maxAttempts {
		return false
	}
	e.count++
	return true
}

// RecordFailure counts an attempt without checking the limit.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entry(key).count++
}

// Reset forgets key, e.g. after a successful login.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, key)
}

// TimeUntilReset returns how long until key's window ends.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok {
		return 0
	}
	elapsed := rl.now().Sub(e.windowStart)
	if elapsed >= rl.window {
		return 0
	}
	return rl.window - elapsed
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, e := range rl.entries {
				if now.Sub(e.windowStart) > rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// =============================================================================
// Login Rate Limiter
// =============================================================================

// Login attempts allowed per client IP and window.
const (
	LoginMaxAttempts = 5
	LoginWindow      = 15 * time.Minute
)

// LoginRateLimiter throttles sign-in attempts per client IP. Every POST
// counts; a successful sign-in resets the IP.
type LoginRateLimiter struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewLoginRateLimiter allows LoginMaxAttempts per LoginWindow.
func NewLoginRateLimiter(logger *slog.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{
		limiter: NewRateLimiter(LoginMaxAttempts, LoginWindow),
		logger:  logger,
	}
}

// Limit returns middleware that rejects over-limit requests with 429.
func (l *LoginRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if l.limiter.Allow(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.Warn("rate limit exceeded",
			"ip", clientIP,
			"path", r.URL.Path,
			"method", r.Method,
		)

		retryAfter := int(l.limiter.TimeUntilReset(clientIP).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

		if isAPIRequest(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Too Many Requests</title></head>
<body>
<h1>Too Many Requests</h1>
<p>Too many sign-in attempts. Please wait a moment and try again.</p>
</body>
</html>`))
	})
}

// Reset clears the IP of r after a successful sign-in.
func (l *LoginRateLimiter) Reset(r *http.Request) {
	l.limiter.Reset(getClientIP(r))
}

// Stop ends the limiter's cleanup goroutine.
func (l *LoginRateLimiter) Stop() {
	l.limiter.Stop()
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if clientIP := strings.TrimSpace(strings.Split(xff, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
