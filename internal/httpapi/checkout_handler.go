package httpapi

import (
	"context"
	"net/http"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/checkout"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

type CheckoutFlow interface {
	CheckoutFromCart(ctx context.Context) (surface.Destination, error)
	BuyNow(ctx context.Context, productID int64, qty int) (surface.Destination, error)
	CheckoutView(ctx context.Context) (checkout.View, error)
	ChooseAddress(ctx context.Context, selector surface.AddressSelector) (domain.DraftOrder, error)
	Submit(ctx context.Context) (domain.Order, surface.Destination, error)
	Cancel(ctx context.Context) surface.Destination
}

type CheckoutHandler struct {
	responder
	flow CheckoutFlow
}

func NewCheckoutHandler(flow CheckoutFlow, s Surface) *CheckoutHandler {
	return &CheckoutHandler{responder: responder{surface: s}, flow: flow}
}

type BuyNowRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ChooseAddressRequestDTO struct {
	AddressID int64 `json:"address_id"`
}

// POST /checkout/cart
func (h *CheckoutHandler) FromCart(w http.ResponseWriter, r *http.Request) {
	next, err := h.flow.CheckoutFromCart(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, nil, dest(next))
}

// POST /checkout/buy-now
func (h *CheckoutHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	var req BuyNowRequestDTO
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

	next, err := h.flow.BuyNow(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, nil, dest(next))
}

// GET /checkout
func (h *CheckoutHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.flow.CheckoutView(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, view, nil)
}

// POST /checkout/address
func (h *CheckoutHandler) ChooseAddress(w http.ResponseWriter, r *http.Request) {
	var req ChooseAddressRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if req.AddressID <= 0 {
		h.badRequest(w, r, "address_id must be positive")
		return
	}

	d, err := h.flow.ChooseAddress(r.Context(), address.ByID(req.AddressID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, d, nil)
}

// POST /checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	order, next, err := h.flow.Submit(r.Context())
	if err != nil {
		h.failTo(w, r, err, dest(next))
		return
	}
	h.respond(w, r, http.StatusCreated, order, dest(next))
}

// POST /checkout/cancel
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	next := h.flow.Cancel(r.Context())
	h.respond(w, r, http.StatusOK, nil, dest(next))
}
