package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go-storefront/internal/payment"
	"github.com/go-chi/chi/v5"
)

type CouponHandler struct {
	resolver *payment.CouponResolver
}

func NewCouponHandler(resolver *payment.CouponResolver) *CouponHandler {
	return &CouponHandler{resolver: resolver}
}

// GetCoupon resolves a buyer-facing promotion code. Unknown and inactive codes
// are indistinguishable to the client.
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	coupon, err := h.resolver.Resolve(r.Context(), code)
	if errors.Is(err, payment.ErrInvalidCoupon) {
		respondError(w, http.StatusBadRequest, "invalid_coupon", "promotion code is not valid")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "payment_provider_error", "could not verify promotion code")
		return
	}

	respondJSON(w, http.StatusOK, coupon)
}
