package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderOnTheWay  OrderStatus = "ON_THE_WAY"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderFailed    OrderStatus = "FAILED"
)

// COMPLETED, CANCELLED and FAILED are terminal.
var orderTransitions = transitionTable[OrderStatus]{
	OrderPending:   {OrderConfirmed, OrderCancelled, OrderFailed},
	OrderConfirmed: {OrderPreparing, OrderCancelled, OrderFailed},
	OrderPreparing: {OrderReady, OrderFailed},
	OrderReady:     {OrderOnTheWay, OrderCompleted, OrderFailed},
	OrderOnTheWay:  {OrderCompleted, OrderFailed},
}

var orderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
	OrderOnTheWay, OrderCompleted, OrderCancelled, OrderFailed,
}

// OrderStatuses returns every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus accepts the status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range orderStatuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s OrderStatus) IsTerminal() bool { return orderTransitions.isTerminal(s) }

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return orderTransitions.allows(s, target)
}

// CustomerCancellable reports whether the owning customer may still cancel.
func (s OrderStatus) CustomerCancellable() bool {
	return s == OrderPending || s == OrderConfirmed
}

// Order is the aggregate created at checkout. Items are price snapshots and
// are only mutable while the order is PENDING.
type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	OrderDate time.Time   `gorm:"type:date;not null;index:idx_orders_status_date,priority:2"`
	Status    OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_orders_status_date,priority:1"`
	// ReceiptEmail receives the PDF receipt on completion when set.
	ReceiptEmail string `gorm:"type:varchar(254)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment *Payment    `gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable price snapshot of a product within an order.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrderFromCart snapshots the cart lines into a new PENDING order dated
// orderDate. The cart itself is left untouched.
func NewOrderFromCart(userID uuid.UUID, cart *Cart, orderDate time.Time) (*Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	o := &Order{
		ID:        uuid.New(),
		UserID:    userID,
		OrderDate: CalendarDate(orderDate),
		Status:    OrderPending,
		Items:     make([]OrderItem, 0, len(cart.Lines)),
	}
	for i, l := range cart.Lines {
		o.Items = append(o.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			Position:    i,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		})
	}
	return o, nil
}

// CalculateTotal sums unitPrice × quantity. An empty slice totals zero.
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (o *Order) Total() decimal.Decimal { return CalculateTotal(o.Items) }

// Transition moves the order to target if the lifecycle table allows it.
func (o *Order) Transition(target OrderStatus) error {
	if err := orderTransitions.check(o.Status, target, ErrIllegalTransition); err != nil {
		return err
	}
	o.Status = target
	return nil
}

// CancelByCustomer is the customer-facing cancellation: only PENDING and
// CONFIRMED orders qualify, even though the kitchen flow allows more.
func (o *Order) CancelByCustomer() error {
	if !o.Status.CustomerCancellable() {
		return stateErr(ErrIllegalTransition, o.Status, OrderCancelled)
	}
	return o.Transition(OrderCancelled)
}

func (o *Order) ensureEditable() error {
	if o.Status != OrderPending {
		return &StateError{Err: ErrOrderLocked, Current: string(o.Status)}
	}
	return nil
}

func (o *Order) itemIndex(productID uuid.UUID) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (o *Order) renumber() {
	for i := range o.Items {
		o.Items[i].Position = i
	}
}

// AddItem merges into an existing line for the same product or appends a new
// snapshot line.
func (o *Order) AddItem(productID uuid.UUID, name string, unitPrice decimal.Decimal, qty int) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if i := o.itemIndex(productID); i >= 0 {
		o.Items[i].Quantity += qty
		return nil
	}
	o.Items = append(o.Items, OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		Position:    len(o.Items),
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   unitPrice,
		Quantity:    qty,
	})
	return nil
}

// RemoveItem reports whether a line for productID existed.
func (o *Order) RemoveItem(productID uuid.UUID) (bool, error) {
	if err := o.ensureEditable(); err != nil {
		return false, err
	}
	i := o.itemIndex(productID)
	if i < 0 {
		return false, nil
	}
	o.Items = append(o.Items[:i], o.Items[i+1:]...)
	o.renumber()
	return true, nil
}

// UpdateItemQuantity sets a line's quantity; qty <= 0 removes the line.
func (o *Order) UpdateItemQuantity(productID uuid.UUID, qty int) (bool, error) {
	if err := o.ensureEditable(); err != nil {
		return false, err
	}
	i := o.itemIndex(productID)
	if i < 0 {
		return false, nil
	}
	if qty <= 0 {
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		o.renumber()
		return true, nil
	}
	o.Items[i].Quantity = qty
	return true, nil
}

func (o *Order) ClearItems() error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	o.Items = []OrderItem{}
	return nil
}
