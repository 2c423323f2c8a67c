package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

func recordPath(kind domain.EntityKind, id int64) string {
	return "/" + kind.APIPath + "/" + strconv.FormatInt(id, 10)
}

// Get loads a single record.
func (c *Client) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Record, error) {
	var rec domain.Record
	_, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     recordPath(kind, id),
		endpoint: kind.APIPath + "/{id}",
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create posts a new record. The backend may answer with the created record or
// an empty body; in the latter case the returned record is nil.
func (c *Client) Create(ctx context.Context, kind domain.EntityKind, payload any) (*domain.Record, error) {
	var rec domain.Record
	decoded, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/" + kind.APIPath,
		body:     payload,
		endpoint: kind.APIPath,
	}, &rec)
	if err != nil {
		return nil, err
	}
	if !decoded {
		return nil, nil
	}
	return &rec, nil
}

// Patch applies a partial update. Any JSON the backend returns is ignored.
func (c *Client) Patch(ctx context.Context, kind domain.EntityKind, id int64, payload any) error {
	_, err := c.do(ctx, request{
		method:   http.MethodPatch,
		path:     recordPath(kind, id),
		body:     payload,
		endpoint: kind.APIPath + "/{id}",
	}, nil)
	return err
}

// PatchFieldValues replaces the values of dynamic fields on a record.
func (c *Client) PatchFieldValues(ctx context.Context, kind domain.EntityKind, id int64, values []domain.FieldValue) error {
	return c.Patch(ctx, kind, id, map[string]any{"fieldValues": values})
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, kind domain.EntityKind, id int64) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     recordPath(kind, id),
		endpoint: kind.APIPath + "/{id}",
	}, nil)
	return err
}
