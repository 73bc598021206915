package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go-storefront/internal/domain"
)

// CouponResolver turns a buyer-entered promotion code into a coupon via the
// processor. An unknown code is ErrInvalidCoupon; callers degrade to "no
// discount" instead of aborting checkout.
type CouponResolver struct {
	processor Processor
}

func NewCouponResolver(processor Processor) *CouponResolver {
	return &CouponResolver{processor: processor}
}

func (r *CouponResolver) Resolve(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := r.processor.CouponByPromoCode(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve promotion code: %w", err)
	}
	return coupon, nil
}
