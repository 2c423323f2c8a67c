package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// SaveUser persists the signed-in user's hints.
func SaveUser(ctx context.Context, s Scoped, u domain.SessionUser) error {
	authorities := u.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	raw, err := json.Marshal(authorities)
	if err != nil {
		return fmt.Errorf("encode authorities: %w", err)
	}

	values := map[string]string{
		KeyUserID:      u.UserID,
		KeyUserRole:    u.Role,
		KeyFullName:    u.FullName,
		KeyAuthorities: string(raw),
	}
	for _, k := range UserKeys {
		if err := s.Set(ctx, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// LoadUser reads the user's hints. It returns nil when no user is recorded.
func LoadUser(ctx context.Context, s Scoped) (*domain.SessionUser, error) {
	id, ok, err := s.Get(ctx, KeyUserID)
	if err != nil {
		return nil, err
	}
	if !ok || id == "" {
		return nil, nil
	}

	u := &domain.SessionUser{UserID: id}
	if u.Role, _, err = s.Get(ctx, KeyUserRole); err != nil {
		return nil, err
	}
	if u.FullName, _, err = s.Get(ctx, KeyFullName); err != nil {
		return nil, err
	}
	raw, _, err := s.Get(ctx, KeyAuthorities)
	if err != nil {
		return nil, err
	}
	u.Authorities = domain.ParseAuthorities(raw)
	return u, nil
}
