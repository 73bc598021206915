package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go-storefront/internal/domain"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrDeliveryMethodNotFound = errors.New("delivery method not found")
)

// Repository is the read side of the product catalog used by pricing
// validation and order creation.
type Repository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error)
	ListDeliveryMethods(ctx context.Context) ([]*domain.DeliveryMethod, error)
}
