package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"medstore/internal/catalog"
)

// productList accepts either a bare array or a paginated {"results": [...]} body.
type productList []catalog.Product

func (l *productList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]catalog.Product)(l))
	}
	var page struct {
		Results []catalog.Product `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return fmt.Errorf("unexpected products payload: %w", err)
	}
	*l = page.Results
	return nil
}

// ListProducts fetches GET /api/products/.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out productList
	if err := c.getJSON(ctx, "/api/products/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategories fetches GET /api/categories/.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	if err := c.getJSON(ctx, "/api/categories/", &out); err != nil {
		return nil, err
	}
	return out, nil
}
