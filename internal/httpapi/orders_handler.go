package httpapi

import (
	"context"
	"net/http"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

type Orders interface {
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, skip, limit int) ([]domain.Order, error)
	Cancel(ctx context.Context, id int64) (domain.Order, error)
	Pay(ctx context.Context, id int64) (domain.Order, error)
}

type OrdersHandler struct {
	responder
	orders Orders
}

func NewOrdersHandler(orders Orders, s Surface) *OrdersHandler {
	return &OrdersHandler{responder: responder{surface: s}, orders: orders}
}

// GET /orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	list, err := h.orders.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Order{}
	}
	h.respond(w, r, http.StatusOK, list, nil)
}

// GET /orders/{id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Get)
}

// POST /orders/{id}/cancel
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Cancel)
}

// POST /orders/{id}/pay
func (h *OrdersHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Pay)
}

func (h *OrdersHandler) withOrder(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (domain.Order, error)) {
	id, ok := idParam(r, "id")
	if !ok {
		h.badRequest(w, r, "order id must be a positive integer")
		return
	}
	order, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, order, dest(surface.OrderPage(order.ID)))
}
