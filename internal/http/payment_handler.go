package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/payment"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	coordinator *payment.Coordinator
	catalog     catalog.Repository
}

func NewPaymentHandler(coordinator *payment.Coordinator, repo catalog.Repository) *PaymentHandler {
	return &PaymentHandler{coordinator: coordinator, catalog: repo}
}

// CreateOrUpdateIntent runs the payment-intent flow for the cart in the URL
// and returns the cart carrying the client secret. Buyer mistakes (unknown
// cart, stale delivery method, vanished product) are 400s; processor trouble
// is a 502 so the client can retry.
func (h *PaymentHandler) CreateOrUpdateIntent(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "cart id is required")
		return
	}

	shopCart, err := h.coordinator.CreateOrUpdateIntent(r.Context(), cartID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrCartNotFound):
			respondError(w, http.StatusBadRequest, "cart_not_found", "cart does not exist or has expired")
		case errors.Is(err, payment.ErrDeliveryMethodInvalid):
			respondError(w, http.StatusBadRequest, "invalid_delivery_method", "selected delivery method is not available")
		case errors.Is(err, payment.ErrProductUnavailable):
			respondError(w, http.StatusBadRequest, "product_unavailable", "a cart item is no longer available")
		default:
			log.Printf("payment intent flow failed for cart %s: %v", cartID, err)
			respondError(w, http.StatusBadGateway, "payment_provider_error", "payment provider is unavailable")
		}
		return
	}

	respondJSON(w, http.StatusOK, shopCart)
}

func (h *PaymentHandler) ListDeliveryMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalog.ListDeliveryMethods(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list delivery methods")
		return
	}

	respondJSON(w, http.StatusOK, methods)
}
