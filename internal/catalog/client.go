package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
)

type Client struct {
	gw apigw.Caller
}

func NewClient(gw apigw.Caller) *Client {
	return &Client{gw: gw}
}

// List returns active products, paged with skip/limit.
func (c *Client) List(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	products, err := apigw.Do[[]domain.Product](ctx, c.gw, http.MethodGet, "/api/products/", nil, apigw.WithQuery(q))
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Get(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, domain.Validationf("product_id must be positive")
	}
	return apigw.Do[domain.Product](ctx, c.gw, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil)
}

// Snapshot fetches the product and checks it can be bought in qty units.
func (c *Client) Snapshot(ctx context.Context, id int64, qty int) (domain.ProductSnapshot, error) {
	if qty < 1 {
		return domain.ProductSnapshot{}, domain.Validationf("quantity must be at least 1")
	}
	p, err := c.Get(ctx, id)
	if err != nil {
		return domain.ProductSnapshot{}, err
	}
	if p.Stock <= 0 {
		return domain.ProductSnapshot{}, domain.Validationf("%s is out of stock", p.Name)
	}
	if qty > p.Stock {
		return domain.ProductSnapshot{}, domain.Validationf("only %d of %s left in stock", p.Stock, p.Name)
	}
	return p.Snapshot(), nil
}
