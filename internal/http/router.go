package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	CartHandler    *CartHandler
	PaymentHandler *PaymentHandler
	CouponHandler  *CouponHandler
	OrderHandler   *OrderHandler
	WebhookHandler *WebhookHandler
	WSHandler      *WSHandler
	RequestTimeout time.Duration
}

// NewRouter assembles the route table. The webhook route sits outside the
// buyer-auth group and outside the timeout middleware so a slow settlement
// cannot be cut off mid-transaction by the request deadline.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/payments/webhook", cfg.WebhookHandler.HandleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cfg.CartHandler.GetCart)
			r.Post("/", cfg.CartHandler.SetCart)
			r.Delete("/", cfg.CartHandler.DeleteCart)
		})

		r.Get("/api/payments/delivery-methods", cfg.PaymentHandler.ListDeliveryMethods)
		r.Get("/api/coupons/{code}", cfg.CouponHandler.GetCoupon)

		r.Group(func(r chi.Router) {
			r.Use(BuyerAuthMiddleware)

			r.Post("/api/payments/{cartId}", cfg.PaymentHandler.CreateOrUpdateIntent)

			r.Route("/api/orders", func(r chi.Router) {
				r.Post("/", cfg.OrderHandler.CreateOrder)
				r.Get("/", cfg.OrderHandler.ListOrders)
				r.Get("/{id}", cfg.OrderHandler.GetOrder)
			})
		})
	})

	// outside the timeout group: websocket connections are long-lived
	r.Group(func(r chi.Router) {
		r.Use(BuyerAuthMiddleware)
		r.Get("/ws", cfg.WSHandler.Serve)
	})

	return r
}
