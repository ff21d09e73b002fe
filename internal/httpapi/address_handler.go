package httpapi

import (
	"context"
	"net/http"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/domain"
)

type AddressBook interface {
	List(ctx context.Context) ([]domain.Address, error)
	Create(ctx context.Context, in address.Input) (domain.Address, error)
	Update(ctx context.Context, id int64, in address.Input) (domain.Address, error)
	Delete(ctx context.Context, id int64) error
}

type AddressHandler struct {
	responder
	book AddressBook
}

func NewAddressHandler(book AddressBook, s Surface) *AddressHandler {
	return &AddressHandler{responder: responder{surface: s}, book: book}
}

// GET /addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.book.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	h.respond(w, r, http.StatusOK, list, nil)
}

// POST /addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in address.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	a, err := h.book.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, a, nil)
}

// PUT /addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.badRequest(w, r, "address id must be a positive integer")
		return
	}
	var in address.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	a, err := h.book.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, a, nil)
}

// DELETE /addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.badRequest(w, r, "address id must be a positive integer")
		return
	}
	if err := h.book.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, nil, nil)
}
