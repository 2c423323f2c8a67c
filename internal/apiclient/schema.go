package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// FieldSet selects which field list of an entity type to load.
type FieldSet string

const (
	AllFields        FieldSet = ""
	VisibleFields    FieldSet = "visible"
	FilterableFields FieldSet = "filterable"
	CreateFields     FieldSet = "visible-in-create"
)

// ClientType loads an entity type by id.
func (c *Client) ClientType(ctx context.Context, id int64) (*domain.EntityType, error) {
	var et domain.EntityType
	_, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/client-type/" + strconv.FormatInt(id, 10),
		endpoint: "client-type",
	}, &et)
	if err != nil {
		return nil, err
	}
	return &et, nil
}

// Fields loads one field list of an entity type in backend order.
func (c *Client) Fields(ctx context.Context, typeID int64, set FieldSet) ([]domain.FieldDefinition, error) {
	path := "/client-type/" + strconv.FormatInt(typeID, 10) + "/field"
	endpoint := "client-type/field"
	if set != AllFields {
		path += "/" + string(set)
		endpoint += "/" + string(set)
	}

	var fields []domain.FieldDefinition
	if _, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     path,
		endpoint: endpoint,
	}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
