package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go-storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	store Store
	sfg   singleflight.Group // Prevents concurrent duplicate reads of the same cart
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetCart returns the stored cart, or an empty skeleton when nothing is
// stored under the id. Absence is not an error for callers.
func (s *Service) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		cart, err := s.store.Get(ctx, id)
		if errors.Is(err, ErrCartNotFound) {
			return &domain.Cart{ID: id, Items: []domain.CartItem{}}, nil
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// SetCart upserts the cart and returns the stored value.
func (s *Service) SetCart(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart.ID == "" {
		return nil, fmt.Errorf("cart id is required")
	}
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %d has non-positive quantity", item.ProductID)
		}
	}

	if err := s.store.Set(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) DeleteCart(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
