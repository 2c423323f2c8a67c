package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// SearchParams are the list request parameters. Filters travel as one
// JSON-encoded query parameter, never as nested keys.
type SearchParams struct {
	Page         int
	Size         int
	Sort         string
	Direction    domain.Direction
	Q            string
	Filters      domain.Filters
	ClientTypeID int64
}

// Query encodes the parameters in a stable order:
// page, size, sort, direction, then q, filters and clientTypeId when set.
func (p SearchParams) Query() (string, error) {
	var b strings.Builder
	add := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	add("page", strconv.Itoa(p.Page))
	add("size", strconv.Itoa(p.Size))
	if p.Sort != "" {
		add("sort", p.Sort)
	}
	if p.Direction != "" {
		add("direction", string(p.Direction))
	}
	if q := strings.TrimSpace(p.Q); q != "" {
		add("q", q)
	}
	if filters := p.Filters.Normalize(); len(filters) > 0 {
		raw, err := json.Marshal(filters)
		if err != nil {
			return "", fmt.Errorf("encode filters: %w", err)
		}
		add("filters", string(raw))
	}
	if p.ClientTypeID > 0 {
		add("clientTypeId", strconv.FormatInt(p.ClientTypeID, 10))
	}
	return b.String(), nil
}

// Search loads one page of records for kind. The envelope is returned as the
// backend sent it.
func (c *Client) Search(ctx context.Context, kind domain.EntityKind, p SearchParams) (*domain.Page, error) {
	query, err := p.Query()
	if err != nil {
		return nil, err
	}

	var page domain.Page
	_, err = c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/" + kind.APIPath + "/" + kind.SearchPath,
		rawQuery: query,
		endpoint: kind.APIPath + "/" + kind.SearchPath,
	}, &page)
	if err != nil {
		return nil, err
	}
	if page.Content == nil {
		page.Content = []domain.Record{}
	}
	return &page, nil
}
