package httpapi

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

type CartStore interface {
	Reload(ctx context.Context) error
	Items() []domain.CartItem
	Subtotal() decimal.Decimal
	Count() int
	AllSelected() bool
	SetQuantity(ctx context.Context, productID int64, qty int) error
	Remove(ctx context.Context, productID int64) error
	ToggleSelected(ctx context.Context, productID int64) error
	ToggleSelectAll(ctx context.Context, selected bool) error
}

type CartAdder interface {
	AddToCart(ctx context.Context, productID int64, qty int) (surface.Destination, error)
}

type CartHandler struct {
	responder
	cart  CartStore
	adder CartAdder
}

func NewCartHandler(cart CartStore, adder CartAdder, s Surface) *CartHandler {
	return &CartHandler{responder: responder{surface: s}, cart: cart, adder: adder}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SelectAllRequestDTO struct {
	Selected bool `json:"selected"`
}

type CartDTO struct {
	Items       []domain.CartItem `json:"items"`
	Subtotal    string            `json:"subtotal"`
	Count       int               `json:"count"`
	AllSelected bool              `json:"all_selected"`
}

func (h *CartHandler) snapshot() CartDTO {
	items := h.cart.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartDTO{
		Items:       items,
		Subtotal:    h.cart.Subtotal().StringFixed(2),
		Count:       h.cart.Count(),
		AllSelected: h.cart.AllSelected(),
	}
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Reload(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, h.snapshot(), nil)
}

// POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		h.badRequest(w, r, "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	next, err := h.adder.AddToCart(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, h.snapshot(), dest(next))
}

// PUT /cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "product_id")
	if !ok {
		h.badRequest(w, r, "product_id must be a positive integer")
		return
	}
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	h.mutate(w, r, func(ctx context.Context) error {
		return h.cart.SetQuantity(ctx, productID, req.Quantity)
	})
}

// DELETE /cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "product_id")
	if !ok {
		h.badRequest(w, r, "product_id must be a positive integer")
		return
	}
	h.mutate(w, r, func(ctx context.Context) error {
		return h.cart.Remove(ctx, productID)
	})
}

// POST /cart/items/{product_id}/toggle
func (h *CartHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "product_id")
	if !ok {
		h.badRequest(w, r, "product_id must be a positive integer")
		return
	}
	h.mutate(w, r, func(ctx context.Context) error {
		return h.cart.ToggleSelected(ctx, productID)
	})
}

// POST /cart/select-all
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	h.mutate(w, r, func(ctx context.Context) error {
		return h.cart.ToggleSelectAll(ctx, req.Selected)
	})
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context) error) {
	if err := fn(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, h.snapshot(), nil)
}
