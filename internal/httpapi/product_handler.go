package httpapi

import (
	"context"
	"net/http"

	"github.com/fjod/shopflow/internal/domain"
)

type Products interface {
	List(ctx context.Context, skip, limit int) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
}

type ProductHandler struct {
	responder
	products Products
}

func NewProductHandler(products Products, s Surface) *ProductHandler {
	return &ProductHandler{responder: responder{surface: s}, products: products}
}

// GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	products, err := h.products.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	h.respond(w, r, http.StatusOK, products, nil)
}

// GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.badRequest(w, r, "product id must be a positive integer")
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, p, nil)
}
