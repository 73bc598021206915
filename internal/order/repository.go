package order

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrDuplicateIntent = errors.New("order for this payment intent already exists")
)

// OutboxEvent is a settled-order event awaiting publication to the broker.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Repository is the durable order ledger. Create must be atomic: either the
// whole order lands or nothing does. Settle is the only mutation after
// creation and applies a compare-and-swap from Pending, writing the outbox
// event in the same transaction.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID, buyerEmail string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error)
	Settle(ctx context.Context, intentID string, status domain.OrderStatus) (bool, error)
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id uuid.UUID) error
}
