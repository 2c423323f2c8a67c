package domain

import (
	"encoding/json"
	"strings"
)

// SessionUser is what the presentation layer remembers about the signed-in user.
// The backend remains the authority on permissions; these hints only decide which
// affordances to render.
type SessionUser struct {
	UserID      string   `json:"userId"`
	Role        string   `json:"role"`
	FullName    string   `json:"fullName"`
	Authorities []string `json:"authorities"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, "ADMIN")
}

// Can reports whether the user holds authority. Administrators hold every authority.
func (u *SessionUser) Can(authority string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, a := range u.Authorities {
		if strings.EqualFold(a, authority) {
			return true
		}
	}
	return false
}

// ParseAuthorities accepts a JSON array of strings or a comma-separated list.
func ParseAuthorities(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return cleanAuthorities(list)
		}
	}
	return cleanAuthorities(strings.Split(raw, ","))
}

func cleanAuthorities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
