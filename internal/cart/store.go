package cart

import (
	"context"
	"errors"

	"github.com/fjod/go-storefront/internal/domain"
)

// Store is the volatile cart persistence contract. There are no cross-key
// transactions; concurrent sets on the same id are last write wins.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}

var ErrCartNotFound = errors.New("cart not found")
