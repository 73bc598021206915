package notify

import (
	"fmt"

	"github.com/fjod/go-storefront/internal/domain"
)

type orderCompleteMessage struct {
	Event string        `json:"event"`
	Order *domain.Order `json:"order"`
}

// Dispatcher delivers settlement messages over the registry's connections.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Notify sends the settled order to the buyer's live session, if any. No
// session is not an error; the settlement already happened.
func (d *Dispatcher) Notify(buyerEmail string, order *domain.Order) error {
	conn, ok := d.registry.Get(buyerEmail)
	if !ok {
		return nil
	}

	msg := orderCompleteMessage{Event: "order_complete", Order: order}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to push order %s to %s: %w", order.ID, buyerEmail, err)
	}
	return nil
}
