package apiclient

import (
	"context"
	"net/http"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

type entitiesResponse struct {
	Users    []domain.NamedRef `json:"users"`
	Sources  []domain.NamedRef `json:"sources"`
	Products []domain.NamedRef `json:"products"`
}

// Entities loads the id→name lookups used to render foreign keys. It is a
// best-effort read: on failure the error is logged and empty maps are returned.
func (c *Client) Entities(ctx context.Context) domain.Lookups {
	var resp entitiesResponse
	if _, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/entities",
		endpoint: "entities",
	}, &resp); err != nil {
		c.logger.Warn("entity lookups unavailable", "error", err)
		return domain.EmptyLookups()
	}

	return domain.Lookups{
		Users:    domain.ToMap(resp.Users),
		Sources:  domain.ToMap(resp.Sources),
		Products: domain.ToMap(resp.Products),
	}
}
