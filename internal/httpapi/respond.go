package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/logging"
	"github.com/fjod/shopflow/internal/surface"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Surface is where the flow left the shopper and what it wanted to tell them.
type Surface interface {
	Current() surface.Destination
	Resets() int
	Drain() []string
}

type Response struct {
	Data    any                  `json:"data,omitempty"`
	Next    *surface.Destination `json:"next,omitempty"`
	Notices []string             `json:"notices,omitempty"`
}

type ErrorResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code,omitempty"`
	Next    *surface.Destination `json:"next,omitempty"`
	Notices []string             `json:"notices,omitempty"`
}

// responder is embedded by every handler so notices reach the caller with
// whatever response the handler sends.
type responder struct {
	surface Surface
}

func (rs responder) respond(w http.ResponseWriter, r *http.Request, status int, data any, next *surface.Destination) {
	respondJSON(w, r, status, Response{Data: data, Next: next, Notices: rs.drain()})
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	rs.failTo(w, r, err, nil)
}

// failTo reports err together with the surface the caller must show. When
// the handler has no destination of its own, an auth failure or a forced
// navigation during the request sends the caller wherever the core left it.
func (rs responder) failTo(w http.ResponseWriter, r *http.Request, err error, next *surface.Destination) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromCtx(r.Context()).ErrorContext(r.Context(), "request failed", "error", err)
	}
	if next == nil {
		next = rs.forced(r, err)
	}
	respondJSON(w, r, status, ErrorResponse{
		Error:   domain.Message(err),
		Code:    domain.KindName(err),
		Next:    next,
		Notices: rs.drain(),
	})
}

func (rs responder) forced(r *http.Request, err error) *surface.Destination {
	if rs.surface == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAuth) && !resetDuring(r.Context(), rs.surface) {
		return nil
	}
	return dest(rs.surface.Current())
}

func (rs responder) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request", Notices: rs.drain()})
}

func (rs responder) drain() []string {
	if rs.surface == nil {
		return nil
	}
	return rs.surface.Drain()
}

func dest(d surface.Destination) *surface.Destination {
	if d.IsZero() {
		return nil
	}
	return &d
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromCtx(r.Context()).WarnContext(r.Context(), "failed to encode response", slog.Any("error", err))
	}
}

// statusFor maps an error kind to the status the local API answers with.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrAuth:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNoAddress:
		return http.StatusUnprocessableEntity
	case domain.ErrBusinessConflict, domain.ErrAlreadyInProgress, domain.ErrNoDraft, domain.ErrSelectionCancelled:
		return http.StatusConflict
	case domain.ErrNetwork:
		return http.StatusBadGateway
	case domain.ErrRequest:
		var e *domain.Error
		if errors.As(err, &e) && e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

// idParam reads a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParams reads skip/limit from the query, ignoring malformed values.
func pageParams(r *http.Request) (skip, limit int) {
	q := r.URL.Query()
	skip, _ = strconv.Atoi(q.Get("skip"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	return skip, limit
}
