package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/domain"
)

type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart answers an empty cart skeleton for unknown ids; the client treats
// a fresh browser and an expired cart the same way.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "id query parameter is required")
		return
	}

	shopCart, err := h.carts.GetCart(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, shopCart)
}

func (h *CartHandler) SetCart(w http.ResponseWriter, r *http.Request) {
	var shopCart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&shopCart); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	stored, err := h.carts.SetCart(r.Context(), &shopCart)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_cart", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "id query parameter is required")
		return
	}

	if err := h.carts.DeleteCart(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
