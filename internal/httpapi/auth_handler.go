package httpapi

import (
	"context"
	"net/http"

	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

type AuthClient interface {
	SendCode(ctx context.Context, phone string) (auth.SendCodeResult, error)
	Login(ctx context.Context, phone, code string) (surface.Destination, error)
	Logout(ctx context.Context) error
}

// Identity is the read side of the session.
type Identity interface {
	Authenticated() bool
	User() *domain.User
}

type AuthHandler struct {
	responder
	auth     AuthClient
	identity Identity
}

func NewAuthHandler(client AuthClient, identity Identity, s Surface) *AuthHandler {
	return &AuthHandler{responder: responder{surface: s}, auth: client, identity: identity}
}

type SendCodeRequestDTO struct {
	Phone string `json:"phone"`
}

type LoginRequestDTO struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type MeDTO struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// POST /auth/send-code
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	res, err := h.auth.SendCode(r.Context(), req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, res, nil)
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	next, err := h.auth.Login(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, h.me(), dest(next))
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, h.me(), dest(surface.To(surface.Home)))
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.me(), nil)
}

func (h *AuthHandler) me() MeDTO {
	return MeDTO{Authenticated: h.identity.Authenticated(), User: h.identity.User()}
}
