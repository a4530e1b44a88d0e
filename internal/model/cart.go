package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one cart line. Name and price are snapshotted from the catalog
// when the product is first added.
type CartItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a per-session shopping cart. Lines keep insertion order and are
// unique by ProductID. A Cart is not safe for concurrent use; the CartStore
// serialises access per session.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Lines: []CartItem{}}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add inserts a new line or increments the quantity of an existing one.
// The snapshot of an existing line is kept as-is.
func (c *Cart) Add(productID uuid.UUID, name string, unitPrice decimal.Decimal, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Lines[i].Quantity += qty
		return nil
	}
	c.Lines = append(c.Lines, CartItem{
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   unitPrice,
		Quantity:    qty,
	})
	return nil
}

// Remove deletes the line for productID and reports whether it existed.
func (c *Cart) Remove(productID uuid.UUID) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity of an existing line; qty <= 0 removes it.
// Returns false when no line exists for productID.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return true
	}
	c.Lines[i].Quantity = qty
	return true
}

func (c *Cart) Clear() {
	c.Lines = []CartItem{}
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.Lines))
	copy(out, c.Lines)
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }
