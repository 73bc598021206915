package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/domain"
	"github.com/google/uuid"
)

// ErrOrderCreation wraps every precondition failure of order creation; the
// wrapped message carries the specific reason.
var ErrOrderCreation = errors.New("order creation failed")

type CreateOrderInput struct {
	CartID           string
	DeliveryMethodID int64
	ShippingAddress  domain.ShippingAddress
	PaymentSummary   domain.PaymentSummary
	DiscountCents    int64
	BuyerEmail       string
}

// Factory snapshots a paid cart into an immutable ledger record. It does not
// delete the cart; the caller removes it once the whole flow has succeeded so
// the cart stays recoverable if anything after creation fails.
type Factory struct {
	carts   cart.Store
	catalog catalog.Repository
	repo    Repository
}

func NewFactory(carts cart.Store, repo catalog.Repository, orders Repository) *Factory {
	return &Factory{carts: carts, catalog: repo, repo: orders}
}

func (f *Factory) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	shopCart, err := f.carts.Get(ctx, input.CartID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, fmt.Errorf("%w: cart %s not found", ErrOrderCreation, input.CartID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if shopCart.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: no payment intent for cart %s", ErrOrderCreation, input.CartID)
	}

	// copy-not-reference: later catalog edits cannot alter history
	items := make([]domain.OrderItem, 0, len(shopCart.Items))
	for _, item := range shopCart.Items {
		if _, err := f.catalog.GetProduct(ctx, item.ProductID); err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %d no longer exists", ErrOrderCreation, item.ProductID)
			}
			return nil, fmt.Errorf("failed to verify product %d: %w", item.ProductID, err)
		}

		items = append(items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			PictureURL:  item.PictureURL,
			UnitPrice:   domain.Cents(item.Price),
			Quantity:    item.Quantity,
		})
	}

	method, err := f.catalog.GetDeliveryMethod(ctx, input.DeliveryMethodID)
	if errors.Is(err, catalog.ErrDeliveryMethodNotFound) {
		return nil, fmt.Errorf("%w: delivery method %d not found", ErrOrderCreation, input.DeliveryMethodID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery method: %w", err)
	}

	// subtotal is recomputed from the snapshots, never copied from the cart
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		BuyerEmail:      input.BuyerEmail,
		ShippingAddress: input.ShippingAddress,
		Delivery: domain.DeliverySnapshot{
			ShortName:    method.ShortName,
			Description:  method.Description,
			DeliveryTime: method.DeliveryTime,
			Price:        domain.Cents(method.Price),
		},
		PaymentSummary:  input.PaymentSummary,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        input.DiscountCents,
		PaymentIntentID: shopCart.PaymentIntentID,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := f.repo.Create(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateIntent) {
			return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return order, nil
}
