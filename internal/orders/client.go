package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
)

const DefaultPaymentMethod = "wechat"

// Client reads and acts on placed orders. Every call needs an identity.
type Client struct {
	gw            apigw.Caller
	paymentMethod string
	log           *slog.Logger
}

func NewClient(gw apigw.Caller, paymentMethod string, log *slog.Logger) *Client {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return &Client{gw: gw, paymentMethod: paymentMethod, log: log}
}

func (c *Client) Get(ctx context.Context, id int64) (domain.Order, error) {
	return apigw.Do[domain.Order](ctx, c.gw, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, apigw.Authenticated())
}

func (c *Client) List(ctx context.Context, skip, limit int) ([]domain.Order, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return apigw.Do[[]domain.Order](ctx, c.gw, http.MethodGet, "/api/orders/", nil,
		apigw.Authenticated(), apigw.WithQuery(q))
}

// Cancel is only offered for pending orders; the order is re-read so the
// check uses the server's current status.
func (c *Client) Cancel(ctx context.Context, id int64) (domain.Order, error) {
	order, err := c.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanCancel() {
		return domain.Order{}, domain.Validationf("order %s is %s and can no longer be cancelled", order.OrderNo, order.Status)
	}

	if _, err := c.gw.Call(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), nil, apigw.Authenticated()); err != nil {
		return domain.Order{}, err
	}
	c.log.InfoContext(ctx, "order cancelled", "order_id", id, "order_no", order.OrderNo)
	return c.Get(ctx, id)
}

type payRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

// Pay hands a pending order to the payment endpoint. What happens behind
// it is opaque.
func (c *Client) Pay(ctx context.Context, id int64) (domain.Order, error) {
	order, err := c.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanPay() {
		return domain.Order{}, domain.Validationf("order %s is %s and cannot be paid", order.OrderNo, order.Status)
	}

	body := payRequest{OrderID: id, PaymentMethod: c.paymentMethod}
	if _, err := c.gw.Call(ctx, http.MethodPost, "/api/payment/pay", body, apigw.Authenticated()); err != nil {
		return domain.Order{}, err
	}
	c.log.InfoContext(ctx, "order paid", "order_id", id, "order_no", order.OrderNo, "method", c.paymentMethod)
	return c.Get(ctx, id)
}
