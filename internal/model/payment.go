package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCard   PaymentMethod = "CARD"
	MethodBizum  PaymentMethod = "BIZUM"
	MethodPaypal PaymentMethod = "PAYPAL"
)

var paymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodBizum, MethodPaypal}

// PaymentMethods returns the declared methods in their fixed order. Every
// per-method aggregation map carries exactly these keys.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// ParsePaymentMethod accepts the method name case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	candidate := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range paymentMethods {
		if m == candidate {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// FAILED, CANCELLED and REFUNDED are terminal.
var paymentTransitions = transitionTable[PaymentStatus]{
	PaymentPending:   {PaymentCompleted, PaymentCancelled, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
}

func (s PaymentStatus) IsTerminal() bool { return paymentTransitions.isTerminal(s) }

// Payment belongs to exactly one order. Amount is fixed at creation.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null"`
	Status    PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates the PENDING payment for order, with the amount computed
// from the order's current items.
func NewPayment(order *Order, method PaymentMethod) *Payment {
	return &Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  order.Total(),
		Method:  method,
		Status:  PaymentPending,
	}
}

// Process completes the payment, recording the method actually used.
func (p *Payment) Process(method PaymentMethod) error {
	if p.Status == PaymentCompleted {
		return stateErr(ErrAlreadyCompleted, p.Status, PaymentCompleted)
	}
	if err := paymentTransitions.check(p.Status, PaymentCompleted, ErrIllegalPaymentTransition); err != nil {
		return err
	}
	p.Method = method
	p.Status = PaymentCompleted
	return nil
}

func (p *Payment) Refund() error {
	if p.Status != PaymentCompleted {
		return stateErr(ErrNotRefundable, p.Status, PaymentRefunded)
	}
	p.Status = PaymentRefunded
	return nil
}

func (p *Payment) Cancel() error {
	if p.Status == PaymentCompleted {
		return stateErr(ErrCannotCancelCompleted, p.Status, PaymentCancelled)
	}
	if err := paymentTransitions.check(p.Status, PaymentCancelled, ErrIllegalPaymentTransition); err != nil {
		return err
	}
	p.Status = PaymentCancelled
	return nil
}

func (p *Payment) MarkFailed() error {
	if p.Status != PaymentPending {
		return stateErr(ErrInvalidStateForFailure, p.Status, PaymentFailed)
	}
	p.Status = PaymentFailed
	return nil
}

// ChangeMethod switches the method of a payment that has not been settled.
func (p *Payment) ChangeMethod(method PaymentMethod) error {
	if p.Status != PaymentPending {
		return &StateError{Err: ErrIllegalPaymentTransition, Current: string(p.Status)}
	}
	p.Method = method
	return nil
}
