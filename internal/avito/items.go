package avito

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-querystring/query"
)

// GetItem returns full details for one listing.
func (c *Client) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	if itemID <= 0 {
		return nil, validationErr("get_item", "item id must be positive")
	}

	var res Item
	path := fmt.Sprintf("/core/v1/accounts/{account}/items/%d", itemID)
	if err := c.do(ctx, "get_item", http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListItems returns the account's listings, filtered by status and
// paginated by page/per-page.
func (c *Client) ListItems(ctx context.Context, opts ListItemsOptions) ([]Item, error) {
	if opts.Status == "" {
		opts.Status = "active"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultItemsPerPage
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}

	qs, err := query.Values(opts)
	if err != nil {
		return nil, validationErr("list_items", "encode query: %v", err)
	}

	var res struct {
		Resources []Item `json:"resources"`
	}
	if err := c.do(ctx, "list_items", http.MethodGet, "/core/v1/items", qs, nil, &res); err != nil {
		return nil, err
	}
	return res.Resources, nil
}
