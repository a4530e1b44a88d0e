package model

import (
	"errors"
	"fmt"
)

// Validation errors: the caller supplied an out-of-domain value.
var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidPrice         = errors.New("unit price must not be negative")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidDateRange     = errors.New("start date cannot be after end date")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrEmptyCart            = errors.New("cart is empty")
)

// State-machine violations: the operation is not legal given the current state.
var (
	ErrIllegalTransition        = errors.New("illegal order status transition")
	ErrIllegalPaymentTransition = errors.New("illegal payment status transition")
	ErrOrderLocked              = errors.New("order items can only change while the order is pending")
	ErrAlreadyCompleted         = errors.New("payment already completed")
	ErrNotRefundable            = errors.New("only completed payments can be refunded")
	ErrCannotCancelCompleted    = errors.New("completed payments cannot be cancelled")
	ErrInvalidStateForFailure   = errors.New("only pending payments can be marked as failed")
)

// Till uniqueness violations. They depend on business time, never retried.
var (
	ErrTillAlreadyOpen   = errors.New("there is already an open till for today")
	ErrTillAlreadyClosed = errors.New("the till is already closed for today")
	ErrNoOpenTill        = errors.New("no open till found for today")
)

// Not-found errors.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrTillNotFound    = errors.New("till record not found")
	ErrProductNotFound = errors.New("product not found")
)

// StateError reports a rejected state-machine operation together with the
// state the record was in, so callers can explain the rejection.
type StateError struct {
	Err     error
	Current string
	Target  string
}

func (e *StateError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s (current: %s)", e.Err, e.Current)
	}
	return fmt.Sprintf("%s: %s -> %s", e.Err, e.Current, e.Target)
}

func (e *StateError) Unwrap() error { return e.Err }

func stateErr[S ~string](err error, current, target S) error {
	return &StateError{Err: err, Current: string(current), Target: string(target)}
}
