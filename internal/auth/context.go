// Package auth carries the signed-in session through request contexts.
//
// This package is imported by both middleware and handler packages without
// causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated request's identity: the backend bearer
// token, the state namespace derived from it and the user hints saved at
// sign-in.
type Session struct {
	Token     string
	Namespace string
	User      *domain.SessionUser
}

// Can reports whether the session's user holds authority.
func (s *Session) Can(authority string) bool {
	return s != nil && s.User.Can(authority)
}

// GetSession returns the session stored in ctx, or nil.
//
// Usage:
//
//	sess := auth.GetSession(r.Context())
//	if sess == nil {
//	    // Handle unauthenticated request
//	}
func GetSession(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return s
}

// GetSessionFromRequest is GetSession on the request's context.
func GetSessionFromRequest(r *http.Request) *Session {
	return GetSession(r.Context())
}

// SetSession stores a session in the context.
func SetSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
