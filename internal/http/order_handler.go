package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/domain"
	"github.com/fjod/go-storefront/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderHandler struct {
	factory *order.Factory
	repo    order.Repository
	carts   *cart.Service
}

func NewOrderHandler(factory *order.Factory, repo order.Repository, carts *cart.Service) *OrderHandler {
	return &OrderHandler{factory: factory, repo: repo, carts: carts}
}

type CreateOrderRequestDTO struct {
	CartID           string                 `json:"cartId"`
	DeliveryMethodID int64                  `json:"deliveryMethodId"`
	ShippingAddress  domain.ShippingAddress `json:"shippingAddress"`
	PaymentSummary   domain.PaymentSummary  `json:"paymentSummary"`
}

// OrderResponseDTO mirrors the ledger record plus the computed total, which is
// never stored.
type OrderResponseDTO struct {
	ID              uuid.UUID               `json:"id"`
	BuyerEmail      string                  `json:"buyerEmail"`
	ShippingAddress domain.ShippingAddress  `json:"shippingAddress"`
	DeliveryMethod  domain.DeliverySnapshot `json:"deliveryMethod"`
	PaymentSummary  domain.PaymentSummary   `json:"paymentSummary"`
	Items           []domain.OrderItem      `json:"items"`
	Subtotal        int64                   `json:"subtotal"`
	Discount        int64                   `json:"discount"`
	Total           int64                   `json:"total"`
	PaymentIntentID string                  `json:"paymentIntentId"`
	Status          string                  `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
}

func toOrderResponse(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:              o.ID,
		BuyerEmail:      o.BuyerEmail,
		ShippingAddress: o.ShippingAddress,
		DeliveryMethod:  o.Delivery,
		PaymentSummary:  o.PaymentSummary,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.TotalCents(),
		PaymentIntentID: o.PaymentIntentID,
		Status:          o.Status.String(),
		CreatedAt:       o.CreatedAt,
	}
}

// CreateOrder snapshots the cart into the ledger. The discount is taken from
// the coupon cached on the cart; the payment flow already fixed it against the
// processor when the intent amount was set.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	buyerEmail := getBuyerEmail(r.Context())

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "cartId is required")
		return
	}

	shopCart, err := h.carts.GetCart(r.Context(), req.CartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	var discount int64
	if shopCart.Coupon != nil {
		discount = shopCart.Coupon.DiscountCents(shopCart.SubtotalCents())
	}

	placed, err := h.factory.Create(r.Context(), order.CreateOrderInput{
		CartID:           req.CartID,
		DeliveryMethodID: req.DeliveryMethodID,
		ShippingAddress:  req.ShippingAddress,
		PaymentSummary:   req.PaymentSummary,
		DiscountCents:    discount,
		BuyerEmail:       buyerEmail,
	})
	if errors.Is(err, order.ErrOrderCreation) {
		respondError(w, http.StatusBadRequest, "order_creation_failed", err.Error())
		return
	}
	if err != nil {
		log.Printf("order creation failed for cart %s: %v", req.CartID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create order")
		return
	}

	// the order is durable now; a leftover cart only lingers until its TTL
	if err := h.carts.DeleteCart(r.Context(), req.CartID); err != nil {
		log.Printf("failed to delete cart %s after order %s: %v", req.CartID, placed.ID, err)
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(placed))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	buyerEmail := getBuyerEmail(r.Context())

	orders, err := h.repo.ListByBuyer(r.Context(), buyerEmail)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	responses := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, toOrderResponse(o))
	}

	respondJSON(w, http.StatusOK, responses)
}

// GetOrder is buyer-scoped: an order belonging to someone else answers 404,
// not 403, so ids cannot be probed.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	buyerEmail := getBuyerEmail(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	o, err := h.repo.GetByID(r.Context(), id, buyerEmail)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
