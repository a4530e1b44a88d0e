package service

import (
	"context"
	"time"

	"foodie/internal/dto"
	"foodie/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Clock returns the current instant in the business time zone. Calendar
// dates (order date, till date) are taken from it.
type Clock func() time.Time

// ClockIn returns a wall clock reporting time in loc.
func ClockIn(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func toCartResponse(c *model.Cart) *dto.CartResponse {
	resp := &dto.CartResponse{
		SessionID: c.SessionID,
		Items:     make([]dto.CartItemResponse, 0, len(c.Lines)),
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
	}
	for _, l := range c.Lines {
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ProductID:   l.ProductID.String(),
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal(),
		})
	}
	return resp
}

func toPaymentResponse(p *model.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:        p.ID.String(),
		OrderID:   p.OrderID.String(),
		Amount:    p.Amount,
		Method:    string(p.Method),
		Status:    string(p.Status),
		UpdatedAt: p.UpdatedAt,
	}
}

func toOrderResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:           o.ID.String(),
		UserID:       o.UserID.String(),
		OrderDate:    o.OrderDate.Format(model.DateLayout),
		Status:       string(o.Status),
		Items:        make([]dto.OrderItemResponse, 0, len(o.Items)),
		Total:        o.Total(),
		ReceiptEmail: o.ReceiptEmail,
		CreatedAt:    o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		})
	}
	if o.Payment != nil {
		resp.Payment = toPaymentResponse(o.Payment)
	}
	return resp
}

func amountsToDTO(m model.MethodAmounts) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func toTillResponse(c *model.CashClosing) *dto.TillResponse {
	return &dto.TillResponse{
		ID:             c.ID.String(),
		Date:           c.Date.Format(model.DateLayout),
		OpeningBalance: amountsToDTO(c.OpeningBalance),
		ExpectedAmount: amountsToDTO(c.ExpectedAmount),
		RealAmount:     amountsToDTO(c.RealAmount),
		Difference:     amountsToDTO(c.Difference),
		Notes:          c.Notes,
		IsClosed:       c.IsClosed,
		OpenedAt:       c.OpenedAt,
		ClosedAt:       c.ClosedAt,
	}
}
