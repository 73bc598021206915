package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "Pending"
	OrderStatusPaymentReceived OrderStatus = "PaymentReceived"
	OrderStatusPaymentFailed   OrderStatus = "PaymentFailed"
	OrderStatusPaymentMismatch OrderStatus = "PaymentMismatch"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaymentReceived || s == OrderStatusPaymentFailed || s == OrderStatusPaymentMismatch
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Only Pending moves anywhere; terminal states never do.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next.IsTerminal()
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentSummary is the masked card description shown on the order. It never
// holds the full card number.
type PaymentSummary struct {
	Brand    string `json:"brand"`
	Last4    int    `json:"last4"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
}

// OrderItem is a snapshot captured at order-creation time, decoupled from the
// live catalog so later product edits cannot alter a placed order.
type OrderItem struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	PictureURL  string `json:"pictureUrl"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// DeliverySnapshot freezes the chosen delivery method's price and description
// on the order.
type DeliverySnapshot struct {
	ShortName    string `json:"shortName"`
	Description  string `json:"description"`
	DeliveryTime string `json:"deliveryTime"`
	Price        int64  `json:"price"`
}

// Order is immutable once written except for Status, which only the webhook
// reconciliation path mutates. PaymentIntentID is unique and is the sole
// correlation key between the ledger and processor events.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	BuyerEmail      string           `json:"buyerEmail"`
	ShippingAddress ShippingAddress  `json:"shippingAddress"`
	Delivery        DeliverySnapshot `json:"deliveryMethod"`
	PaymentSummary  PaymentSummary   `json:"paymentSummary"`
	Items           []OrderItem      `json:"items"`
	Subtotal        int64            `json:"subtotal"`
	Discount        int64            `json:"discount"`
	PaymentIntentID string           `json:"paymentIntentId"`
	Status          OrderStatus      `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// TotalCents is the authoritative amount the processor should have captured.
func (o *Order) TotalCents() int64 {
	return o.Subtotal + o.Delivery.Price - o.Discount
}
