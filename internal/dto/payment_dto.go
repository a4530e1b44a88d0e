package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

type PaymentResponse struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
}
