package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/domain"
)

// PricingValidator re-derives authoritative item prices from the catalog at
// intent-creation time, so stale prices from old page loads are never charged.
type PricingValidator struct {
	catalog catalog.Repository
}

func NewPricingValidator(repo catalog.Repository) *PricingValidator {
	return &PricingValidator{catalog: repo}
}

// Validate overwrites drifted price snapshots in place and reports whether
// anything changed. A missing product fails the whole validation; items are
// never silently dropped.
func (v *PricingValidator) Validate(ctx context.Context, cart *domain.Cart) (bool, error) {
	dirty := false
	for i := range cart.Items {
		product, err := v.catalog.GetProduct(ctx, cart.Items[i].ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return false, fmt.Errorf("%w: product %d", ErrProductUnavailable, cart.Items[i].ProductID)
		}
		if err != nil {
			return false, fmt.Errorf("failed to get product %d: %w", cart.Items[i].ProductID, err)
		}

		if cart.Items[i].Price != product.Price {
			cart.Items[i].Price = product.Price
			dirty = true
		}
	}
	return dirty, nil
}
