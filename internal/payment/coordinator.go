package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/domain"
)

// Coordinator owns the payment-intent lifecycle for a cart: revalidate
// prices, compute the chargeable total in minor units, create or update the
// processor intent, and persist the result back onto the cart.
type Coordinator struct {
	carts     cart.Store
	validator *PricingValidator
	processor Processor
}

func NewCoordinator(carts cart.Store, repo catalog.Repository, processor Processor) *Coordinator {
	return &Coordinator{
		carts:     carts,
		validator: NewPricingValidator(repo),
		processor: processor,
	}
}

// CreateOrUpdateIntent runs the whole intent flow for the cart id and returns
// the updated cart. Repeated calls converge: once the cart carries an intent
// id, the amount is updated in place and the id never changes. Two concurrent
// calls for a cart with no intent yet can both create; callers are expected
// to serialize per cart.
func (c *Coordinator) CreateOrUpdateIntent(ctx context.Context, cartID string) (*domain.Cart, error) {
	shopCart, err := c.carts.Get(ctx, cartID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCartNotFound, cartID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	shippingCents, err := c.shippingPrice(ctx, shopCart)
	if err != nil {
		return nil, err
	}

	if _, err := c.validator.Validate(ctx, shopCart); err != nil {
		return nil, err
	}

	subtotal := shopCart.SubtotalCents()

	var discount int64
	if shopCart.Coupon != nil {
		discount, err = c.liveDiscount(ctx, shopCart.Coupon, subtotal)
		if err != nil {
			return nil, err
		}
	}

	total := subtotal + shippingCents - discount

	if err := c.createOrUpdate(ctx, shopCart, total); err != nil {
		return nil, err
	}

	// persist the possibly price-corrected cart and the intent ids
	if err := c.carts.Set(ctx, shopCart); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return shopCart, nil
}

func (c *Coordinator) shippingPrice(ctx context.Context, shopCart *domain.Cart) (int64, error) {
	if shopCart.DeliveryMethodID == nil {
		return 0, nil
	}

	method, err := c.validator.catalog.GetDeliveryMethod(ctx, *shopCart.DeliveryMethodID)
	if errors.Is(err, catalog.ErrDeliveryMethodNotFound) {
		return 0, fmt.Errorf("%w: %d", ErrDeliveryMethodInvalid, *shopCart.DeliveryMethodID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get delivery method: %w", err)
	}

	return domain.Cents(method.Price), nil
}

// liveDiscount recomputes the discount from the processor's current coupon
// record, not the amounts cached on the cart.
func (c *Coordinator) liveDiscount(ctx context.Context, cached *domain.Coupon, subtotal int64) (int64, error) {
	coupon, err := c.processor.CouponByID(ctx, cached.CouponID)
	if errors.Is(err, ErrCouponNotFound) {
		// the promotion was deleted processor-side since it was applied
		log.Printf("coupon %s no longer exists, charging without discount", cached.CouponID)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch live coupon: %w", err)
	}

	return coupon.DiscountCents(subtotal), nil
}

func (c *Coordinator) createOrUpdate(ctx context.Context, shopCart *domain.Cart, total int64) error {
	if shopCart.PaymentIntentID == "" {
		intent, err := c.processor.CreateIntent(ctx, total)
		if err != nil {
			return fmt.Errorf("failed to create payment intent: %w", err)
		}
		shopCart.PaymentIntentID = intent.ID
		shopCart.ClientSecret = intent.ClientSecret
		return nil
	}

	if _, err := c.processor.UpdateIntent(ctx, shopCart.PaymentIntentID, total); err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}
	return nil
}
