package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Auth     *AuthHandler
	Address  *AddressHandler
	Orders   *OrdersHandler
	// Surface, when set, lets error responses report forced navigation.
	Surface  Surface
}

func NewRouter(h Handlers, requestTimeout time.Duration, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	if h.Surface != nil {
		r.Use(TrackResets(h.Surface))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Products.List)
		r.Get("/{id}", h.Products.Get)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Cart.GetCart)
		r.Post("/items", h.Cart.AddItem)
		r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
		r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		r.Post("/items/{product_id}/toggle", h.Cart.ToggleItem)
		r.Post("/select-all", h.Cart.SelectAll)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.Checkout.View)
		r.Post("/cart", h.Checkout.FromCart)
		r.Post("/buy-now", h.Checkout.BuyNow)
		r.Post("/address", h.Checkout.ChooseAddress)
		r.Post("/submit", h.Checkout.Submit)
		r.Post("/cancel", h.Checkout.Cancel)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", h.Auth.Me)
		r.Post("/send-code", h.Auth.SendCode)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
	})

	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.Address.List)
		r.Post("/", h.Address.Create)
		r.Put("/{id}", h.Address.Update)
		r.Delete("/{id}", h.Address.Delete)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.Orders.List)
		r.Get("/{id}", h.Orders.Get)
		r.Post("/{id}/cancel", h.Orders.Cancel)
		r.Post("/{id}/pay", h.Orders.Pay)
	})

	return otelhttp.NewHandler(r, "shopflow")
}
