package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// LoginResult is the backend's answer to a successful sign-in.
type LoginResult struct {
	Token string
	User  domain.SessionUser
}

type loginResponse struct {
	Token       string          `json:"token"`
	UserID      flexID          `json:"userId"`
	Role        string          `json:"role"`
	FullName    string          `json:"fullName"`
	Authorities json.RawMessage `json:"authorities"`
}

// flexID accepts a JSON number or string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Login exchanges credentials for a bearer token and the user's hints.
func (c *Client) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	var resp loginResponse
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     map[string]string{"login": login, "password": password},
		endpoint: "auth/login",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response carried no token")
	}

	return &LoginResult{
		Token: resp.Token,
		User: domain.SessionUser{
			UserID:      string(resp.UserID),
			Role:        resp.Role,
			FullName:    resp.FullName,
			Authorities: authoritiesFromJSON(resp.Authorities),
		},
	}, nil
}

// authoritiesFromJSON accepts ["a","b"], "a,b" or [{"authority":"a"}].
func authoritiesFromJSON(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return domain.ParseAuthorities(s)
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return domain.ParseAuthorities(strings.Join(list, ","))
		}
		var objs []struct {
			Authority string `json:"authority"`
		}
		if err := json.Unmarshal(raw, &objs); err != nil {
			return nil
		}
		names := make([]string, 0, len(objs))
		for _, o := range objs {
			names = append(names, o.Authority)
		}
		return domain.ParseAuthorities(strings.Join(names, ","))
	}
	return nil
}
