// Package events publishes order, payment and till domain events. Publishing
// is best effort: a broker outage never fails the operation that emitted the
// event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderCreated         = "order.created"
	OrderStatusChanged   = "order.status_changed"
	PaymentStatusChanged = "payment.status_changed"
	TillOpened           = "till.opened"
	TillClosed           = "till.closed"
)

// Event is the envelope written to the topic. Key fields are optional
// depending on Type.
type Event struct {
	ID         uuid.UUID                  `json:"id"`
	Type       string                     `json:"type"`
	OrderID    *uuid.UUID                 `json:"order_id,omitempty"`
	PaymentID  *uuid.UUID                 `json:"payment_id,omitempty"`
	Status     string                     `json:"status,omitempty"`
	Previous   string                     `json:"previous,omitempty"`
	Amount     *decimal.Decimal           `json:"amount,omitempty"`
	Method     string                     `json:"method,omitempty"`
	Date       string                     `json:"date,omitempty"`
	Amounts    map[string]decimal.Decimal `json:"amounts,omitempty"`
	OccurredAt time.Time                  `json:"occurred_at"`
}

func New(eventType string) Event {
	return Event{ID: uuid.New(), Type: eventType, OccurredAt: time.Now().UTC()}
}

// Key returns the partition key: the order id when present so per-order
// events stay ordered, otherwise the event type.
func (e Event) Key() string {
	if e.OrderID != nil {
		return e.OrderID.String()
	}
	return e.Type
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop discards events. Used when no broker is configured and in tests.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
