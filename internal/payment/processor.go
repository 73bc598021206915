package payment

import (
	"context"
	"errors"

	"github.com/fjod/go-storefront/internal/domain"
)

// Intent is the processor-side charge-in-progress. ClientSecret is only
// populated on create; the buyer's client uses it to complete authentication.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
}

// Processor is the external payment collaborator. Implementations talk to the
// real processor; callers own timeouts around these calls since the processor
// is the least reliable dependency in the pipeline.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64) (*Intent, error)
	UpdateIntent(ctx context.Context, id string, amountCents int64) (*Intent, error)
	CouponByID(ctx context.Context, id string) (*domain.Coupon, error)
	CouponByPromoCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// ErrCouponNotFound is returned by Processor implementations when no coupon
// matches; the resolver maps it to ErrInvalidCoupon for callers.
var ErrCouponNotFound = errors.New("coupon not found")
