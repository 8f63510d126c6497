package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, checkoutLimiter ratelimit.Limiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", server.CatalogHandler.ListProducts)
			r.Get("/categories", server.CatalogHandler.ListCategories)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", server.CartHandler.GetCart)
			r.Delete("/", server.CartHandler.ClearCart)
			r.Post("/items", server.CartHandler.AddItem)
			r.Put("/items/{name}", server.CartHandler.SetQuantity)
			r.Delete("/items/{name}", server.CartHandler.RemoveItem)
			r.Put("/coupon", server.CartHandler.ApplyCoupon)
			r.Delete("/coupon", server.CartHandler.ClearCoupon)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/state", server.CheckoutHandler.State)
			if checkoutLimiter != nil {
				r.With(m.NewRateLimitMiddleware(checkoutLimiter)).Post("/", server.CheckoutHandler.Checkout)
			} else {
				r.Post("/", server.CheckoutHandler.Checkout)
			}
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", server.OrderHandler.ListOrders)
			r.Get("/archive", server.OrderHandler.ListArchivedOrders)
			r.Get("/archive/{id}", server.OrderHandler.GetArchivedOrder)
		})
	})

	if logger != nil {
		_ = chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
			return nil
		})
	}
	return r
}
