package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	ReceiptEmail  string `json:"receipt_email"  validate:"omitempty,email,max=254"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// OrderFilter is bound from the query string. Dates are YYYY-MM-DD.
type OrderFilter struct {
	Status string `form:"status"`
	Start  string `form:"start"`
	End    string `form:"end"`
	UserID string `form:"user_id" validate:"omitempty,uuid"`
	Page   int    `form:"page"    validate:"omitempty,min=1"`
	Limit  int    `form:"limit"   validate:"omitempty,min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	OrderDate    string              `json:"order_date"`
	Status       string              `json:"status"`
	Items        []OrderItemResponse `json:"items"`
	Total        decimal.Decimal     `json:"total"`
	Payment      *PaymentResponse    `json:"payment,omitempty"`
	ReceiptEmail string              `json:"receipt_email,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
