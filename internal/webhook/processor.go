// Package webhook drives order-status reconciliation from processor events.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/fjod/go-storefront/internal/order"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventTypePaymentSucceeded is the only event type this pipeline acts on.
const EventTypePaymentSucceeded = "payment_intent.succeeded"

// Event is a verified payment-lifecycle notification from the processor.
type Event struct {
	ID             string
	Type           string
	IntentID       string
	AmountReceived int64
}

// Verifier authenticates a raw webhook delivery and extracts the event.
// Implementations return ErrInvalidSignature (wrapped) on signature failure.
type Verifier interface {
	Verify(payload []byte, signature string) (*Event, error)
}

// Notifier pushes an order-complete message to the buyer's live session.
type Notifier interface {
	Notify(buyerEmail string, order *domain.Order) error
}

type Processor struct {
	verifier Verifier
	ledger   order.Repository
	notifier Notifier
}

func NewProcessor(verifier Verifier, ledger order.Repository, notifier Notifier) *Processor {
	return &Processor{
		verifier: verifier,
		ledger:   ledger,
		notifier: notifier,
	}
}

// Process handles one webhook delivery. An error return means the caller
// should answer 500 so the processor redelivers; nil means the delivery is
// fully absorbed, including benign no-ops like redelivered or irrelevant
// events. No state is touched before the signature checks out.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) error {
	event, err := p.verifier.Verify(payload, signature)
	if err != nil {
		return fmt.Errorf("webhook verification failed: %w", err)
	}

	if event.Type != EventTypePaymentSucceeded {
		log.Printf("ignoring webhook event type %s", event.Type)
		return nil
	}

	ord, err := p.ledger.GetByPaymentIntentID(ctx, event.IntentID)
	if errors.Is(err, order.ErrOrderNotFound) {
		// order creation is expected to precede settlement; a retry after
		// the processor's redelivery backoff gives it time to appear
		return fmt.Errorf("no order for payment intent %s: %w", event.IntentID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to look up order: %w", err)
	}

	if ord.Status.IsTerminal() {
		// redelivery of an already-settled event
		return nil
	}

	status := domain.OrderStatusPaymentReceived
	if ord.TotalCents() != event.AmountReceived {
		// a recorded business outcome for manual reconciliation, not a fault
		status = domain.OrderStatusPaymentMismatch
	}

	applied, err := p.ledger.Settle(ctx, event.IntentID, status)
	if err != nil {
		return fmt.Errorf("failed to settle order %s: %w", ord.ID, err)
	}
	if !applied {
		// a concurrent delivery won the race and owns the side effects
		return nil
	}

	ord.Status = status
	if err := p.notifier.Notify(ord.BuyerEmail, ord); err != nil {
		// best effort: the buyer may simply be offline
		log.Printf("order %s settled but notification failed: %v", ord.ID, err)
	}

	return nil
}
